package model

// Path represents a file system path.
type Path string

// SourceFile is a single Noir source file discovered under a project root.
// RelPath is root-relative and slash-separated so spans and reports stay
// stable when the project moves; AbsPath is used for actual reads.
type SourceFile struct {
	RelPath Path
	AbsPath Path
}
