// Package config loads the product descriptor table that drives the release
// pipeline.
//
// # Overview
//
// A product descriptor names one installer binary (for example itch-setup or
// kitch-setup) and records everything that differs between products: which
// (OS, arch) pairs it ships for, the per-OS feature tags passed to the
// compiler, whether it is signed and with which credentials, and whether a
// native helper must be rebuilt before cross-compiling.
//
// The built-in table returned by Defaults matches the products published to
// itch.io. A release.lua file can replace it.
//
// # Lua schema
//
// Configs assign a global "setupship" table:
//
//	setupship = {
//	  organization = "itchio",
//	  mainline = "master",
//	  products = {
//	    {
//	      name = "itch-setup",
//	      resource = "itch-setup.rc",
//	      platforms = {
//	        windows = { "i686", "x86_64" },
//	        linux = { "x86_64" },
//	        darwin = { "x86_64", "arm64" },
//	      },
//	      tags = {
//	        linux = { "pango_1_42", "gtk_3_22", "glib_2_58", "gdk_pixbuf_2_38" },
//	      },
//	      signing = {
//	        enabled = true,
//	        certificate = "itch corp.",
//	        timestamp_url = "http://timestamp.digicert.com",
//	        identity = "Developer ID Application: itch corp.",
//	      },
//	    },
//	  },
//	}
//
// The detected build host is available to configs as a read-only "platform"
// table (see platform.InjectPlatformTable), so a config can vary feature tags
// by distribution.
//
// # Sandboxing
//
// Configs run in a gopher-lua VM with os, io, debug and the module loaders
// removed. Only string, table and math remain, which keeps configs
// declarative.
//
// # Errors
//
// Lua errors and schema violations are returned as *ParseError. Use
// FormatError to render them with or without the raw Lua traceback.
package config
