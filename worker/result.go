package worker

// ToolResultKind identifies the concrete shape of a ToolResultValue.
type ToolResultKind string

const (
	ToolResultKindText        ToolResultKind = "text"
	ToolResultKindDiff        ToolResultKind = "diff"
	ToolResultKindFileContent ToolResultKind = "file_content"
	ToolResultKindFileList    ToolResultKind = "file_list"
	ToolResultKindJSON        ToolResultKind = "json"
)

type (
	// ToolResultValue is the sum type a Tool.Execute returns. Every kind may
	// carry an optional Summary string for compact UI rendering.
	ToolResultValue interface {
		Kind() ToolResultKind
		Summary() string
	}

	base struct {
		summary string
	}

	// TextResult is a plain text tool result.
	TextResult struct {
		base
		Content string
	}

	// DiffResult describes a file write/patch: the prior content (absent for
	// new files), the new content, and the byte count written.
	DiffResult struct {
		base
		Path         string
		Original     *string
		Modified     string
		IsNew        bool
		BytesWritten int
	}

	// FileContentResult carries the full content of one file.
	FileContentResult struct {
		base
		Path    string
		Content string
		Size    int
	}

	// FileListResult carries a directory listing.
	FileListResult struct {
		base
		Path  string
		Files []string
		Count int
	}

	// JSONResult carries an arbitrary JSON-serializable payload.
	JSONResult struct {
		base
		Data any
	}
)

func (b base) Summary() string { return b.summary }

func (TextResult) Kind() ToolResultKind        { return ToolResultKindText }
func (DiffResult) Kind() ToolResultKind        { return ToolResultKindDiff }
func (FileContentResult) Kind() ToolResultKind { return ToolResultKindFileContent }
func (FileListResult) Kind() ToolResultKind    { return ToolResultKindFileList }
func (JSONResult) Kind() ToolResultKind        { return ToolResultKindJSON }

// NewTextResult builds a TextResult, optionally attaching a summary.
func NewTextResult(content, summary string) TextResult {
	return TextResult{base: base{summary: summary}, Content: content}
}

// NewDiffResult builds a DiffResult for a file write.
func NewDiffResult(path string, original *string, modified string, isNew bool, summary string) DiffResult {
	return DiffResult{
		base:         base{summary: summary},
		Path:         path,
		Original:     original,
		Modified:     modified,
		IsNew:        isNew,
		BytesWritten: len(modified),
	}
}

// NewFileContentResult builds a FileContentResult.
func NewFileContentResult(path, content, summary string) FileContentResult {
	return FileContentResult{base: base{summary: summary}, Path: path, Content: content, Size: len(content)}
}

// NewFileListResult builds a FileListResult.
func NewFileListResult(path string, files []string, summary string) FileListResult {
	return FileListResult{base: base{summary: summary}, Path: path, Files: files, Count: len(files)}
}

// NewJSONResult builds a JSONResult.
func NewJSONResult(data any, summary string) JSONResult {
	return JSONResult{base: base{summary: summary}, Data: data}
}
