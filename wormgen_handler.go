package worm

// Gen is the code generator handler for the wormgen tool.
type Gen struct {
	logFn   func(messages ...any)
	rootDir string
}

// NewGen creates a new Gen handler with rootDir defaulting to ".".
func NewGen() *Gen {
	return &Gen{rootDir: "."}
}

// SetLog sets the log function for warnings and informational messages.
// If not set, messages are silently discarded.
func (g *Gen) SetLog(fn func(messages ...any)) {
	g.logFn = fn
}

// SetRootDir sets the root directory that Run() will scan.
// Defaults to ".". Useful in tests to point to a specific directory
// without needing os.Chdir.
func (g *Gen) SetRootDir(dir string) {
	g.rootDir = dir
}

// log emits a message via the configured log function, if any.
func (g *Gen) log(messages ...any) {
	if g.logFn != nil {
		g.logFn(messages...)
	}
}
