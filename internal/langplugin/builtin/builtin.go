// Package builtin wires the plugins shipped with this binary into a
// Registry. It exists as a separate package from langplugin so that
// langplugin itself stays free of per-language imports; adding a
// language means adding a Register call here, nothing in langplugin
// changes.
package builtin

import (
	"github.com/phrazzld/ctgen/internal/langplugin"
	"github.com/phrazzld/ctgen/internal/langplugin/golike"
	"github.com/phrazzld/ctgen/internal/langplugin/jvmlike"
	"github.com/phrazzld/ctgen/internal/langplugin/pythonic"
)

// NewDefaultRegistry returns a Registry with one plugin registered per
// built-in language family: "python" (interpreted dynamic), "go"
// (natively compiled, statically typed), and "java" (statically compiled
// to a bytecode VM).
func NewDefaultRegistry() *langplugin.Registry {
	r := langplugin.NewRegistry()
	r.Register(pythonic.New())
	r.Register(golike.New())
	r.Register(jvmlike.New())
	return r
}
