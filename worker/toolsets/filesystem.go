package toolsets

import (
	"context"
	"fmt"

	"github.com/zby/golem-forge-sub002/worker"
	"github.com/zby/golem-forge-sub002/worker/sandbox"
	"github.com/zby/golem-forge-sub002/worker/toolerrors"
	"github.com/zby/golem-forge-sub002/worker/tools"
)

// NewFilesystemToolset builds the built-in read_file/write_file/list_files/
// delete_file/stat_file tools wired to sb. Writes and deletes ask for
// approval whenever sb.CheckPermission reports PermissionAsk, per the
// zone-aware approval contract of spec §4.2.
func NewFilesystemToolset(sb sandbox.FileOperations, _ map[string]any) ([]*tools.Tool, error) {
	if sb == nil {
		return nil, fmt.Errorf("toolsets: filesystem toolset requires a sandbox")
	}

	pathSchema := func(description string) map[string]any {
		return map[string]any{
			"type":     "object",
			"required": []any{"path"},
			"properties": map[string]any{
				"path": map[string]any{"type": "string", "description": description},
			},
		}
	}

	needsApprovalFor := func(op string) tools.NeedsApprovalFunc {
		return func(ctx context.Context, args map[string]any) (bool, error) {
			path, _ := args["path"].(string)
			allowed, _, decision, reason := sb.CheckPermission(op, path)
			if !allowed {
				return false, fmt.Errorf("%s", reason)
			}
			return decision == sandbox.PermissionAsk, nil
		}
	}

	readFile := &tools.Tool{
		Name:        "read_file",
		Description: "Read the text content of a file in the sandbox.",
		InputSchema: pathSchema("absolute sandbox-relative path"),
		Execute: func(ctx context.Context, args map[string]any) (worker.ToolResultValue, error) {
			path, _ := args["path"].(string)
			content, err := sb.Read(path)
			if err != nil {
				return nil, toolerrors.NewWithCause(fmt.Sprintf("read %s: %v", path, err), err)
			}
			return worker.NewFileContentResult(path, content, ""), nil
		},
	}

	writeSchema := pathSchema("absolute sandbox-relative path")
	writeSchema["required"] = []any{"path", "content"}
	writeSchema["properties"].(map[string]any)["content"] = map[string]any{"type": "string"}
	writeFile := &tools.Tool{
		Name:          "write_file",
		Description:   "Write text content to a file in the sandbox, creating it if needed.",
		InputSchema:   writeSchema,
		NeedsApproval: needsApprovalFor("write"),
		Execute: func(ctx context.Context, args map[string]any) (worker.ToolResultValue, error) {
			path, _ := args["path"].(string)
			content, _ := args["content"].(string)
			existed, _ := sb.Exists(path)
			var original *string
			if existed {
				if prior, err := sb.Read(path); err == nil {
					original = &prior
				}
			}
			if err := sb.Write(path, []byte(content)); err != nil {
				return nil, toolerrors.NewWithCause(fmt.Sprintf("write %s: %v", path, err), err)
			}
			return worker.NewDiffResult(path, original, content, !existed, ""), nil
		},
	}

	listFiles := &tools.Tool{
		Name:        "list_files",
		Description: "List entries directly under a sandbox directory.",
		InputSchema: pathSchema("absolute sandbox-relative directory path"),
		Execute: func(ctx context.Context, args map[string]any) (worker.ToolResultValue, error) {
			path, _ := args["path"].(string)
			names, err := sb.List(path)
			if err != nil {
				return nil, toolerrors.NewWithCause(fmt.Sprintf("list %s: %v", path, err), err)
			}
			return worker.NewFileListResult(path, names, ""), nil
		},
	}

	deleteFile := &tools.Tool{
		Name:          "delete_file",
		Description:   "Delete a file in the sandbox.",
		InputSchema:   pathSchema("absolute sandbox-relative path"),
		NeedsApproval: needsApprovalFor("delete"),
		Execute: func(ctx context.Context, args map[string]any) (worker.ToolResultValue, error) {
			path, _ := args["path"].(string)
			if err := sb.Delete(path); err != nil {
				return nil, toolerrors.NewWithCause(fmt.Sprintf("delete %s: %v", path, err), err)
			}
			return worker.NewTextResult(fmt.Sprintf("deleted %s", path), ""), nil
		},
	}

	statFile := &tools.Tool{
		Name:        "stat_file",
		Description: "Report size and kind metadata for a sandbox path.",
		InputSchema: pathSchema("absolute sandbox-relative path"),
		Execute: func(ctx context.Context, args map[string]any) (worker.ToolResultValue, error) {
			path, _ := args["path"].(string)
			info, err := sb.Stat(path)
			if err != nil {
				return nil, toolerrors.NewWithCause(fmt.Sprintf("stat %s: %v", path, err), err)
			}
			return worker.NewJSONResult(info, ""), nil
		},
	}

	return []*tools.Tool{readFile, writeFile, listFiles, deleteFile, statFile}, nil
}
