package models

// Group carries the slice of a certificate group this engine needs:
// the configured email templates. Group lifecycle is owned elsewhere.
type Group struct {
	ID              string
	Name            string
	SubjectTemplate string
	BodyTemplate    string
}

// HasTemplates reports whether both templates are configured. A job may
// not begin sending without them.
func (g Group) HasTemplates() bool {
	return g.SubjectTemplate != "" && g.BodyTemplate != ""
}

// Certificate points at a generated artifact. FileURL is preferred over
// FilePath when both are set; Code is the short human-assigned ID.
type Certificate struct {
	ID       string
	GroupID  string
	Code     string
	FileName string
	FileURL  string
	FilePath string
}
