package models

import "strings"

type InputMethod string

const (
	InputPasted      InputMethod = "pasted"
	InputFileDerived InputMethod = "file-derived"
)

// JobDescription is the text ranked résumés are matched against.
type JobDescription struct {
	Text       string      `json:"text"`
	Method     InputMethod `json:"method"`
	SourceFile string      `json:"sourceFile,omitempty"`
}

func (j JobDescription) IsEmpty() bool {
	return strings.TrimSpace(j.Text) == ""
}
