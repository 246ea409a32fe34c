package registry

// Built-in UMD bundles served from unpkg.
const (
	ReactVersion      = "18.2.0"
	MaterialUIVersion = "5.15.14"
)

// Defaults returns the built-in library set
func Defaults() []Descriptor {
	return []Descriptor{
		{
			ID:      "react",
			Source:  "https://unpkg.com/react@" + ReactVersion + "/umd/react.production.min.js",
			Version: ReactVersion,
			Global:  "React",
		},
		{
			ID:       "reactDOM",
			Source:   "https://unpkg.com/react-dom@" + ReactVersion + "/umd/react-dom.production.min.js",
			Version:  ReactVersion,
			Global:   "ReactDOM",
			Requires: []string{"react"},
		},
		{
			ID:       "materialUI",
			Source:   "https://unpkg.com/@mui/material@" + MaterialUIVersion + "/umd/material-ui.production.min.js",
			Version:  MaterialUIVersion,
			Global:   "MaterialUI",
			Requires: []string{"react", "reactDOM"},
		},
	}
}

// Default returns a registry containing only the built-in set
func Default() *Registry {
	return MustNew(Defaults()...)
}
