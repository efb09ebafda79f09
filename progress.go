package n64rd

// Progress receives transfer progress notifications during Read, Write,
// ReadROM and Upgrade. rangeIndex is the 0-based index into the caller's
// Range list (always 0 for ReadROM and Upgrade, which take a single
// implicit range); transferred and total are byte counts within that
// range. Report is called every 16384 bytes and once more at the end of
// each range.
type Progress interface {
	Report(rangeIndex int, transferred, total uint32)
}

// ProgressFunc adapts a plain function to Progress, the same pattern as
// http.HandlerFunc.
type ProgressFunc func(rangeIndex int, transferred, total uint32)

func (f ProgressFunc) Report(rangeIndex int, transferred, total uint32) {
	f(rangeIndex, transferred, total)
}

// reportProgress calls p.Report if p is non-nil.
func reportProgress(p Progress, rangeIndex int, transferred, total uint32) {
	if p != nil {
		p.Report(rangeIndex, transferred, total)
	}
}
