package config

// Lua schema field names and globals
const (
	luaGlobalSetupship  = "setupship"
	luaFieldOrg         = "organization"
	luaFieldMainline    = "mainline"
	luaFieldArtifacts   = "artifacts_dir"
	luaFieldTools       = "tools_dir"
	luaFieldProducts    = "products"
	luaFieldName        = "name"
	luaFieldResource    = "resource"
	luaFieldNative      = "native_helper"
	luaFieldPlatforms   = "platforms"
	luaFieldTags        = "tags"
	luaFieldSigning     = "signing"
	luaFieldEnabled     = "enabled"
	luaFieldCertificate = "certificate"
	luaFieldTimestamp   = "timestamp_url"
	luaFieldIdentity    = "identity"
)

// Limits applied while loading configs.
const (
	// MaxConfigSize is the largest release.lua accepted, in bytes.
	MaxConfigSize = 1 << 20

	// MaxProductCount bounds the number of products in one config.
	MaxProductCount = 32

	// MaxTagCount bounds the number of feature tags per OS.
	MaxTagCount = 64
)

// Built-in defaults.
const (
	DefaultOrganization = "itchio"
	DefaultMainline     = "master"
	DefaultArtifactsDir = "artifacts"
	DefaultToolsDir     = "tools"
	DefaultResource     = "itch-setup.rc"
	DefaultTimestampURL = "http://timestamp.digicert.com"
	DefaultCertificate  = "itch corp."
	DefaultIdentity     = "Developer ID Application: itch corp."
	DefaultNativeHelper = "node_modules/@itchio/husk"
)
