// Package registry holds the catalog of third-party libraries that documents
// may request at runtime.
//
// A Registry maps a short library identifier ("react", "reactDOM",
// "materialUI") to a Descriptor naming where the library is fetched from and
// which version is pinned. The set is fixed when the Registry is built and is
// read-only afterwards, so lookups need no synchronization.
//
// Components:
//   - Descriptor: identifier, source URL, version tag, exported global name
//   - Registry: immutable identifier -> Descriptor lookup
//   - Catalog files: YAML or TOML manifests merged over the built-in defaults
//
// Catalog format (YAML):
//
//	libraries:
//	  - id: react
//	    source: https://unpkg.com/react@18.2.0/umd/react.production.min.js
//	    version: 18.2.0
//	    global: React
//
// Example Usage:
//
//	reg, err := registry.Build("catalog/**/*.yaml")
//	desc, ok := reg.Describe("react")
package registry
