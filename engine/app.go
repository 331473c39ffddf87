package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// App is a wrapper around the process manager and http router concepts defined by this pkg.
// It represents a set of "modules": types that can run workers or handle http routes.
// Modules are registered with .Add() and the whole thing runs until .Run() returns.
type App struct {
	ProcMgr
	Router *Router
}

func NewApp(httpAddr string, router *Router) *App {
	a := &App{Router: router}
	a.ProcMgr.Add(router.Serve(httpAddr))
	return a
}

// Add attaches the routes and workers of a module, whichever it provides.
func (a *App) Add(mod any) {
	type routableModule interface {
		AttachRoutes(*Router)
	}
	type workableModule interface {
		AttachWorkers(*ProcMgr)
	}

	var routes, workers bool
	if m, ok := mod.(routableModule); ok {
		m.AttachRoutes(a.Router)
		routes = true
	}
	if m, ok := mod.(workableModule); ok {
		before := len(a.procs)
		m.AttachWorkers(&a.ProcMgr)
		workers = len(a.procs) > before
	}
	slog.Debug("added module", "type", fmt.Sprintf("%T", mod), "routes", routes, "workers", workers)
}

type Proc func(context.Context) error

// ProcMgr runs a set of long-lived procs and stops them together.
type ProcMgr struct {
	procs []Proc
}

func (p *ProcMgr) Add(proc Proc) { p.procs = append(p.procs, proc) }

// Run starts every proc and blocks until they have all returned.
// Procs are expected to run until the context is canceled, so a proc that returns early
// cancels the others and its error is returned.
func (p *ProcMgr) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var wg sync.WaitGroup
	for _, proc := range p.procs {
		wg.Add(1)
		go func(proc Proc) {
			defer wg.Done()
			err := proc(ctx)
			if ctx.Err() != nil {
				return // shutting down
			}
			if err == nil {
				err = errors.New("a proc returned unexpectedly")
			}
			cancel(err)
		}(proc)
	}
	wg.Wait()

	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
