package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"

	"github.com/cory-johannsen/makavia/internal/game/story"
)

// Evaluator runs story condition predicates. Each evaluation gets a fresh
// sandbox preloaded with the helper library, so predicates cannot leak state
// into one another.
//
// Evaluator is safe for concurrent use.
type Evaluator struct {
	limit  int
	logger *zap.Logger

	mu      sync.Mutex
	library []*lua.FunctionProto
	cache   map[string]*lua.FunctionProto
}

// NewEvaluator creates an Evaluator whose predicates may execute at most
// instLimit opcodes.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
func NewEvaluator(instLimit int, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		limit:  instLimit,
		logger: logger,
		cache:  map[string]*lua.FunctionProto{},
	}
}

// LoadLibrary compiles every *.lua file in dir, in lexicographic order, as
// helper code run before each predicate.
//
// Precondition: dir must be a readable directory.
// Postcondition: on error the previously loaded library is kept.
func (e *Evaluator) LoadLibrary(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	var protos []*lua.FunctionProto
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("scripting: reading %q: %w", path, err)
		}
		proto, err := compileChunk(string(data), filepath.Base(path))
		if err != nil {
			return fmt.Errorf("scripting: compiling %q: %w", path, err)
		}
		protos = append(protos, proto)
	}

	e.mu.Lock()
	e.library = protos
	e.mu.Unlock()
	e.logger.Info("scripting: library loaded", zap.String("dir", dir), zap.Int("files", len(protos)))
	return nil
}

// Check compiles src without running it.
func (e *Evaluator) Check(src string) error {
	_, err := e.compile(src)
	return err
}

// EvalPredicate runs src against ctx and returns the truthiness of its result.
// src may be a bare expression ("alignment > 20") or a chunk ending in return.
//
// Postcondition: exceeding the instruction limit, a runtime error, or a compile
// error yields a non-nil error.
func (e *Evaluator) EvalPredicate(src string, ctx story.ScriptContext) (bool, error) {
	proto, err := e.compile(src)
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	library := e.library
	e.mu.Unlock()

	sb := NewSandbox(e.limit)
	defer sb.Close()

	for _, lib := range library {
		if err := sb.Run(lib, 0); err != nil {
			return false, fmt.Errorf("scripting: running library %q: %w", lib.SourceName, err)
		}
	}
	e.bind(sb.L, ctx)

	if err := sb.Run(proto, 1); err != nil {
		e.logger.Warn("scripting: predicate failed", zap.String("script", src), zap.Error(err))
		return false, fmt.Errorf("scripting: evaluating predicate: %w", err)
	}
	ret := sb.L.Get(-1)
	sb.L.Pop(1)
	e.logger.Debug("scripting: predicate evaluated",
		zap.String("script", src),
		zap.Bool("result", lua.LVAsBool(ret)),
		zap.Int64("opcodes", sb.Used()),
	)
	return lua.LVAsBool(ret), nil
}

func (e *Evaluator) bind(L *lua.LState, ctx story.ScriptContext) {
	L.SetGlobal("alignment", lua.LNumber(ctx.Alignment))
	L.SetGlobal("alignment_tier", lua.LString(ctx.AlignmentTier))

	flags := L.NewTable()
	for f, set := range ctx.Flags {
		if set {
			flags.RawSetString(f, lua.LTrue)
		}
	}
	L.SetGlobal("flags", flags)

	L.SetGlobal("affinity", L.NewFunction(func(L *lua.LState) int {
		v, ok := ctx.Affinity[L.CheckString(1)]
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(v))
		return 1
	}))
	L.SetGlobal("relationship_tier", L.NewFunction(func(L *lua.LState) int {
		v, ok := ctx.RelationshipTiers[L.CheckString(1)]
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(v))
		return 1
	}))
	L.SetGlobal("attribute", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(ctx.Attributes[strings.ToLower(L.CheckString(1))]))
		return 1
	}))
}

func (e *Evaluator) compile(src string) (*lua.FunctionProto, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if proto, ok := e.cache[src]; ok {
		return proto, nil
	}
	if strings.TrimSpace(src) == "" {
		return nil, errors.New("scripting: empty predicate")
	}
	proto, err := compileChunk("return "+src, "predicate")
	if err != nil {
		var chunkErr error
		proto, chunkErr = compileChunk(src, "predicate")
		if chunkErr != nil {
			return nil, fmt.Errorf("scripting: compiling predicate: %w", chunkErr)
		}
	}
	e.cache[src] = proto
	return proto, nil
}

func compileChunk(src, name string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(strings.NewReader(src), name)
	if err != nil {
		return nil, err
	}
	return lua.Compile(chunk, name)
}
