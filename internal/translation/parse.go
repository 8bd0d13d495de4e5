package translation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxTrailingAside is the longest segment after an ellipsis that is kept as
// part of the translation.
const maxTrailingAside = 5

var numberPrefix = regexp.MustCompile(`^\d+\. `)

var ellipsisTokens = []string{"...", "…"}

// CleanTranslation strips explanatory asides a model appends after an
// ellipsis. If the segment after the first ellipsis (up to the next one) is
// longer than five characters, the text is cut at the ellipsis. Short
// segments are ordinary ellipses and are kept.
func CleanTranslation(text string) string {
	idx, token := firstEllipsis(text)
	if idx < 0 {
		return strings.TrimSpace(text)
	}

	rest := text[idx+len(token):]
	if next, _ := firstEllipsis(rest); next >= 0 {
		rest = rest[:next]
	}
	if utf8.RuneCountInString(rest) > maxTrailingAside {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

func firstEllipsis(s string) (int, string) {
	best, token := -1, ""
	for _, tok := range ellipsisTokens {
		if i := strings.Index(s, tok); i >= 0 && (best < 0 || i < best) {
			best, token = i, tok
		}
	}
	return best, token
}

// ParseNumbered splits a batch response into cleaned results, one per
// non-blank line. A leading "N. " is removed; lines without it are taken
// whole, so a model that drops the numbering still yields results in order.
func ParseNumbered(response string) []string {
	var results []string
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if loc := numberPrefix.FindStringIndex(line); loc != nil {
			line = line[loc[1]:]
		}
		results = append(results, CleanTranslation(line))
	}
	return results
}

// Align forces results to exactly expected entries: missing slots are filled
// with MsgIncomplete and extra entries are dropped. It returns the aligned
// slice and the number of padded slots.
func Align(results []string, expected int) ([]string, int) {
	aligned := make([]string, expected)
	n := copy(aligned, results)
	for i := n; i < expected; i++ {
		aligned[i] = MsgIncomplete
	}
	return aligned, expected - n
}

// NumberLines renders texts as "1. a\n2. b".
func NumberLines(texts []string) string {
	var sb strings.Builder
	for i, t := range texts {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, t)
	}
	return sb.String()
}

// SinglePrompt builds the prompt for translating one text.
func SinglePrompt(text, source, target string, fixOCR bool) string {
	if fixOCR {
		return fmt.Sprintf(`You are a professional %[1]s to %[2]s translator. Complete these steps:
1. Identify and correct likely OCR errors (misrecognized characters)
2. Translate the corrected %[1]s text into %[2]s
3. Preserve the tone and politeness level of the original

Original: %[3]s

Important: output only the %[2]s translation. Do not add notes in parentheses, explanations, or any other extra content.`, source, target, text)
	}
	return fmt.Sprintf(`Translate the following %[1]s into %[2]s, preserving the tone of the original:

%[3]s

Important: output only the translation. Do not add explanations or notes.`, source, target, text)
}

// BatchPrompt builds the prompt for translating several texts at once. The
// texts are numbered 1..len(texts).
func BatchPrompt(texts []string, source, target string, fixOCR bool) string {
	numbered := NumberLines(texts)
	if fixOCR {
		return fmt.Sprintf(`You are a professional %[1]s to %[2]s translator. Process the following %[1]s texts:
1. Correct likely OCR errors
2. Translate into %[2]s
3. Preserve the tone of the original

Texts:
%[3]s

Important: output the translations with exactly the same numbering, one translation per line. Do not add notes in parentheses, explanations, or any other extra content.
Format example:
1. translation 1
2. translation 2`, source, target, numbered)
	}
	return fmt.Sprintf(`Translate the following %[1]s texts into %[2]s:

%[3]s

Important: output the translations with exactly the same numbering, one translation per line. Do not add explanations or notes.`, source, target, numbered)
}

// languageNames maps Baidu language codes to names used in prompts.
var languageNames = map[string]string{
	"jp":  "Japanese",
	"zh":  "Simplified Chinese",
	"cht": "Traditional Chinese",
	"en":  "English",
	"kor": "Korean",
	"fra": "French",
	"de":  "German",
	"spa": "Spanish",
}

// LanguageName returns a human-readable name for a language code, or the
// code itself when it is not known.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}
