package course

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FetchOutline loads a course, its modules and every module's lessons.
// Lessons of different modules are loaded concurrently.
func (svc *Service) FetchOutline(ctx context.Context, courseID string) (Outline, error) {
	c, err := svc.FetchCourse(ctx, courseID)
	if err != nil {
		return Outline{}, err
	}
	modules, err := svc.FetchModulesByCourse(ctx, courseID)
	if err != nil {
		return Outline{}, err
	}

	outline := Outline{Course: c, Modules: make([]ModuleOutline, len(modules))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(svc.outlineWorkers)
	for i, m := range modules {
		i, m := i, m
		outline.Modules[i].Module = m
		g.Go(func() error {
			lessons, err := svc.FetchLessonsByModule(gctx, m.ID)
			if err != nil {
				return err
			}
			outline.Modules[i].Lessons = lessons
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Outline{}, err
	}
	return outline, nil
}
