package ollama

import "strings"

const defaultVisionPrompt = `Describe the attached image for a content scoring system.`

const responseContract = `Return strict JSON object with keys:
labels (array of short strings, at most 10), objects (array of strings, at most 5),
landmarks (array of strings, at most 3), colors (array of dominant colors as "rgb(r, g, b)", at most 5),
safeSearch (object with adult, violence, racy; each one of VERY_UNLIKELY, UNLIKELY, POSSIBLE, LIKELY, VERY_LIKELY).
No markdown, no extra keys.`

// buildVisionPrompt prefixes the config's template to the fixed response contract.
// A {{filename}} placeholder in the template is replaced with the image name.
func buildVisionPrompt(template, filename string) string {
	head := strings.TrimSpace(template)
	if head == "" {
		head = defaultVisionPrompt
	}
	head = strings.ReplaceAll(head, "{{filename}}", filename)
	return head + "\n\n" + responseContract
}
