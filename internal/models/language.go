package models

import "strings"

type Language struct {
	ID      int    `json:"lang_id"`
	Name    string `json:"language"`
	FileExt string `json:"file_ext"`
}

var languages = []Language{
	{ID: 0, Name: "java", FileExt: ".java"},
	{ID: 1, Name: "python", FileExt: ".py"},
	{ID: 2, Name: "cpp", FileExt: ".cpp"},
	{ID: 3, Name: "javascript", FileExt: ".js"},
	{ID: 4, Name: "go", FileExt: ".go"},
}

func LookupLanguage(name string) (Language, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, l := range languages {
		if l.Name == name {
			return l, true
		}
	}
	return Language{}, false
}
