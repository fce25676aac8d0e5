package config

import (
	"bytes"
	"strings"
	"time"
)

// Generator generates Lua configuration code from Go structs.
type Generator struct {
	indent string
	now    func() time.Time
}

// NewGenerator creates a new Lua config generator.
func NewGenerator() *Generator {
	return &Generator{
		indent: "  ",
		now:    time.Now,
	}
}

// Generate renders config as a release.lua that ParseString reads back to an
// equivalent Config.
func (g *Generator) Generate(config *Config) (string, error) {
	if err := config.Validate(); err != nil {
		return "", err
	}

	var buf bytes.Buffer

	buf.WriteString("-- setupship release configuration\n")
	buf.WriteString("-- Generated: ")
	buf.WriteString(g.now().UTC().Format(time.RFC3339))
	buf.WriteString("\n\n")

	buf.WriteString(luaGlobalSetupship + " = {\n")
	g.writeField(&buf, 1, luaFieldOrg, config.Organization)
	g.writeField(&buf, 1, luaFieldMainline, config.Mainline)
	g.writeField(&buf, 1, luaFieldArtifacts, config.ArtifactsDir)
	g.writeField(&buf, 1, luaFieldTools, config.ToolsDir)
	buf.WriteString("\n")

	g.line(&buf, 1, luaFieldProducts+" = {")
	for _, p := range config.Products {
		g.writeProduct(&buf, p)
	}
	g.line(&buf, 1, "},")

	buf.WriteString("}\n")

	return buf.String(), nil
}

func (g *Generator) writeProduct(buf *bytes.Buffer, p Product) {
	g.line(buf, 2, "{")
	g.writeField(buf, 3, luaFieldName, p.Name)
	if p.Resource != "" {
		g.writeField(buf, 3, luaFieldResource, p.Resource)
	}
	if p.NativeHelperDir != "" {
		g.writeField(buf, 3, luaFieldNative, p.NativeHelperDir)
	}

	g.line(buf, 3, luaFieldPlatforms+" = {")
	for _, os := range sortedOSes(p.Platforms) {
		values := make([]string, 0, len(p.Platforms[os]))
		for _, a := range p.Platforms[os] {
			values = append(values, string(a))
		}
		g.line(buf, 4, string(os)+" = "+g.luaList(values)+",")
	}
	g.line(buf, 3, "},")

	if len(p.Tags) > 0 {
		g.line(buf, 3, luaFieldTags+" = {")
		for _, os := range sortedOSes(p.Tags) {
			g.line(buf, 4, string(os)+" = "+g.luaList(p.Tags[os])+",")
		}
		g.line(buf, 3, "},")
	}

	g.line(buf, 3, luaFieldSigning+" = {")
	if p.Signing.Enabled {
		g.line(buf, 4, luaFieldEnabled+" = true,")
	} else {
		g.line(buf, 4, luaFieldEnabled+" = false,")
	}
	if p.Signing.WindowsCertificate != "" {
		g.writeField(buf, 4, luaFieldCertificate, p.Signing.WindowsCertificate)
	}
	if p.Signing.TimestampURL != "" {
		g.writeField(buf, 4, luaFieldTimestamp, p.Signing.TimestampURL)
	}
	if p.Signing.MacIdentity != "" {
		g.writeField(buf, 4, luaFieldIdentity, p.Signing.MacIdentity)
	}
	g.line(buf, 3, "},")

	g.line(buf, 2, "},")
}

func (g *Generator) writeField(buf *bytes.Buffer, depth int, name, value string) {
	g.line(buf, depth, name+" = "+g.quoteLuaString(value)+",")
}

func (g *Generator) line(buf *bytes.Buffer, depth int, s string) {
	buf.WriteString(strings.Repeat(g.indent, depth))
	buf.WriteString(s)
	buf.WriteString("\n")
}

func (g *Generator) luaList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, g.quoteLuaString(v))
	}
	return "{ " + strings.Join(quoted, ", ") + " }"
}

// quoteLuaString quotes a string for Lua, handling special characters.
func (g *Generator) quoteLuaString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\") // Escape backslashes first
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return "\"" + s + "\""
}
