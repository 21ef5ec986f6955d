package ops

import (
	"context"
	"path/filepath"

	"github.com/hpungsan/octidy/internal/errors"
	"github.com/hpungsan/octidy/internal/storage"
)

// DeleteLogResult reports the outcome of one log file deletion.
type DeleteLogResult struct {
	Name       string `json:"name"`
	Success    bool   `json:"success"`
	BytesFreed int64  `json:"bytes_freed"`
	Error      string `json:"error,omitempty"`
}

// DeleteLogsOutput contains the result of the DeleteLogs operation.
type DeleteLogsOutput struct {
	Results    []DeleteLogResult `json:"results"`
	Deleted    int               `json:"deleted"`
	Failed     int               `json:"failed"`
	BytesFreed int64             `json:"bytes_freed"`
	Message    string            `json:"message"`
}

// DeleteLog removes one log file. The path is rebuilt from the log
// directory and the file name, so nothing outside the log directory can be
// targeted. A file that is already gone frees nothing but still succeeds.
func DeleteLog(st *storage.Store, l LogFile) DeleteLogResult {
	res := DeleteLogResult{Name: l.Name}

	name := filepath.Base(l.Name)
	if name == "." || name == string(filepath.Separator) || name != l.Name {
		res.Error = errors.NewInvalidRequest("invalid log name: " + l.Name).Error()
		return res
	}

	path := filepath.Join(st.LogDir(), name)
	size := storage.FileSize(path)
	existed, err := st.Remove(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	if existed {
		res.BytesFreed = size
	}
	return res
}

// DeleteLogs removes log files one after another. Cancellation is only
// observed between files.
func DeleteLogs(ctx context.Context, st *storage.Store, logs []LogFile) *DeleteLogsOutput {
	out := &DeleteLogsOutput{
		Results: make([]DeleteLogResult, 0, len(logs)),
	}
	for _, l := range logs {
		var res DeleteLogResult
		if ctx.Err() != nil {
			res = DeleteLogResult{
				Name:  l.Name,
				Error: errors.NewCancelled("delete log").Error(),
			}
		} else {
			res = DeleteLog(st, l)
		}

		out.Results = append(out.Results, res)
		if res.Success {
			out.Deleted++
			out.BytesFreed += res.BytesFreed
		} else {
			out.Failed++
		}
	}
	out.Message = formatDeleteLogsMessage(out)
	return out
}
