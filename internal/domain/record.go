package domain

// Record is the serialized form of a whole group store. It is the only
// bit-exact contract of the package:
//
//	{
//	  "groups":   [{"type": "group", "name": ..., "packages": [...]}],
//	  "metas":    [{"type": "meta", "name": ..., "states": {...}}],
//	  "enabled":  [...],
//	  "disabled": [...]
//	}
type Record struct {
	Groups   []GroupRecord `json:"groups"`
	Metas    []MetaRecord  `json:"metas"`
	Enabled  []string      `json:"enabled"`
	Disabled []string      `json:"disabled"`
}

// EmptyRecord returns the canonical record of an empty store.
func EmptyRecord() Record {
	return Record{
		Groups:   []GroupRecord{},
		Metas:    []MetaRecord{},
		Enabled:  []string{},
		Disabled: []string{},
	}
}

// Differences is the result of comparing resolved package states with what
// an extension registry reports.
type Differences struct {
	// Enabled holds packages the host has on that the model wants off.
	Enabled Set `json:"enabled"`
	// Disabled holds packages the host has off that the model wants on.
	Disabled Set `json:"disabled"`
	// Missing holds packages the model references that the host does not list.
	Missing Set `json:"missing"`
}

// Empty reports whether there is nothing to reconcile.
func (d Differences) Empty() bool {
	return len(d.Enabled) == 0 && len(d.Disabled) == 0 && len(d.Missing) == 0
}
