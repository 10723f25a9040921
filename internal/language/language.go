// Package language resolves BCP-47 tags to the English display names used in
// prompts and menus, and builds the language menu offered for recognition and
// playback.
package language

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a catalog entry used when no synthesis voices are available to
// derive the menu from.
type Language struct {
	Tag        string // default regional tag (e.g., "es-ES")
	Name       string // English name (e.g., "Spanish")
	NativeName string // Native name (e.g., "Español")
}

// catalog lists the languages offered out of the box. Tags use the region most
// commonly served by synthesis voices.
var catalog = []Language{
	{Tag: "ar-SA", Name: "Arabic", NativeName: "العربية"},
	{Tag: "bn-IN", Name: "Bangla", NativeName: "বাংলা"},
	{Tag: "zh-CN", Name: "Chinese", NativeName: "中文"},
	{Tag: "cs-CZ", Name: "Czech", NativeName: "Čeština"},
	{Tag: "nl-NL", Name: "Dutch", NativeName: "Nederlands"},
	{Tag: "en-GB", Name: "English", NativeName: "English"},
	{Tag: "en-US", Name: "English", NativeName: "English"},
	{Tag: "fa-IR", Name: "Persian", NativeName: "فارسی"},
	{Tag: "fr-FR", Name: "French", NativeName: "Français"},
	{Tag: "de-DE", Name: "German", NativeName: "Deutsch"},
	{Tag: "el-GR", Name: "Greek", NativeName: "Ελληνικά"},
	{Tag: "ht-HT", Name: "Haitian Creole", NativeName: "Kreyòl ayisyen"},
	{Tag: "he-IL", Name: "Hebrew", NativeName: "עברית"},
	{Tag: "hi-IN", Name: "Hindi", NativeName: "हिन्दी"},
	{Tag: "it-IT", Name: "Italian", NativeName: "Italiano"},
	{Tag: "ja-JP", Name: "Japanese", NativeName: "日本語"},
	{Tag: "ko-KR", Name: "Korean", NativeName: "한국어"},
	{Tag: "pl-PL", Name: "Polish", NativeName: "Polski"},
	{Tag: "pt-BR", Name: "Portuguese", NativeName: "Português"},
	{Tag: "ru-RU", Name: "Russian", NativeName: "Русский"},
	{Tag: "so-SO", Name: "Somali", NativeName: "Soomaali"},
	{Tag: "es-ES", Name: "Spanish", NativeName: "Español"},
	{Tag: "es-MX", Name: "Spanish", NativeName: "Español"},
	{Tag: "sw-KE", Name: "Swahili", NativeName: "Kiswahili"},
	{Tag: "tl-PH", Name: "Tagalog", NativeName: "Tagalog"},
	{Tag: "tr-TR", Name: "Turkish", NativeName: "Türkçe"},
	{Tag: "uk-UA", Name: "Ukrainian", NativeName: "Українська"},
	{Tag: "ur-PK", Name: "Urdu", NativeName: "اردو"},
	{Tag: "vi-VN", Name: "Vietnamese", NativeName: "Tiếng Việt"},
}

// Catalog returns a copy of the built-in language list.
func Catalog() []Language {
	result := make([]Language, len(catalog))
	copy(result, catalog)
	return result
}

// CatalogTags returns the tags of the built-in language list.
func CatalogTags() []string {
	tags := make([]string, len(catalog))
	for i, lang := range catalog {
		tags[i] = lang.Tag
	}
	return tags
}

// Canonical normalizes a tag to its canonical BCP-47 form ("en-us" -> "en-US",
// "pt_BR" -> "pt-BR"). Tags that do not parse are returned trimmed but
// otherwise unchanged.
func Canonical(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	parsed, err := language.Parse(strings.ReplaceAll(tag, "_", "-"))
	if err != nil {
		return tag
	}
	return parsed.String()
}

// IsValid reports whether tag parses as a BCP-47 language tag.
func IsValid(tag string) bool {
	if strings.TrimSpace(tag) == "" {
		return false
	}
	_, err := language.Parse(strings.ReplaceAll(tag, "_", "-"))
	return err == nil
}

// Base returns the primary language subtag ("es-ES" -> "es").
func Base(tag string) string {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	base, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(base)
}

// DisplayName returns the English name of the tag's primary language, which is
// what the completion prompt expects ("es-ES" -> "Spanish"). The tag itself is
// returned when no name is known.
func DisplayName(tag string) string {
	base := Base(tag)
	if base == "" {
		return ""
	}
	parsed, err := language.ParseBase(base)
	if err != nil {
		return tag
	}
	name := display.English.Languages().Name(parsed)
	if name == "" {
		return tag
	}
	return name
}

// Label returns a menu label for the tag ("es-ES" -> "Spanish (es-ES)").
func Label(tag string) string {
	if tag == "" {
		return ""
	}
	name := DisplayName(tag)
	if name == "" || strings.EqualFold(name, tag) {
		return tag
	}
	return fmt.Sprintf("%s (%s)", name, tag)
}

// Option is one entry of a language menu.
type Option struct {
	Value string
	Label string
}

// Options builds a de-duplicated menu from tags, sorted by label using English
// collation.
func Options(tags []string) []Option {
	seen := make(map[string]bool, len(tags))
	options := make([]Option, 0, len(tags))
	for _, tag := range tags {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		options = append(options, Option{Value: tag, Label: Label(tag)})
	}

	c := collate.New(language.English)
	sort.SliceStable(options, func(i, j int) bool {
		return c.CompareString(options[i].Label, options[j].Label) < 0
	})
	return options
}

// PickDefault keeps current when it is one of the options; otherwise it picks
// the first option whose tag starts with prefix, falling back to the first
// option. It returns current unchanged when options is empty.
func PickDefault(options []Option, current, prefix string) string {
	if len(options) == 0 {
		return current
	}
	for _, opt := range options {
		if opt.Value == current {
			return current
		}
	}
	for _, opt := range options {
		if strings.HasPrefix(opt.Value, prefix) {
			return opt.Value
		}
	}
	return options[0].Value
}
