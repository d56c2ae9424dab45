package document

import "strings"

const lineNumberInstruction = `    Every line of file content starts with its line number followed by two
    spaces. The numbers were added for reference and are not part of the files.
`

const preambleHead = `
<file_summary>
  <purpose>
    This file contains a packed representation of the entire repository's contents.
    It is designed to be easily consumable by AI systems for analysis, code review,
    or other automated processes.
  </purpose>

  <file_format>
    The content is organized as follows:
    1. This summary section
    2. Repository structure: A hierarchical listing of all folders and files in the repository.
    3. Repository files: Each file is listed with:
      - File path as an attribute
      - Full contents of the file, excluding binary files.
  </file_format>

  <instructions>
    The LLM is instructed to focus solely on the repository's contents, including
    the code, file structure, and purpose of the files.
    Do not comment on the XML format, structure, or encoding of THIS FILE. Focus
    your analysis on the functionality, structure, and organization of the
    repository contents.
    Each <file> should be interpreted based on its file extension. For example:
    - ".go" for Go
    - ".py" for Python
    - ".md" for Markdown
    - ".rs" for Rust
`

const preambleTail = `  </instructions>

  <usage_guidelines>
    - This file should be treated as read-only. Any changes should be made to the
      original repository files, not this packed version.
    - When processing this file, use the file path to distinguish
      between different files in the repository.
    - Be aware that this file may contain sensitive information. Handle it with
      the same level of security as you would the original repository.
  </usage_guidelines>

  <notes>
    - Some files may have been excluded based on ignore rules and repobundle's
      configuration.
    - Binary files are not included in this packed representation. Please refer to
      the Repository Structure section for a complete list of file paths, including
      binary files.
  </notes>

  <additional_info>
    For more information about repobundle, visit: https://github.com/temirov/repobundle
  </additional_info>
</file_summary>

`

// Preamble returns the static file_summary block. The line numbering
// instruction is present only when lineNumbers is true.
func Preamble(lineNumbers bool) string {
	var builder strings.Builder
	builder.WriteString(preambleHead)
	if lineNumbers {
		builder.WriteString(lineNumberInstruction)
	}
	builder.WriteString(preambleTail)
	return builder.String()
}
