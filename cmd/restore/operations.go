package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cwbudde/algo-restore/dsp/pipeline"
)

// buildOperations turns --op names and --set op.key=value overrides into
// pipeline operations. "all" selects every operation.
func buildOperations(names, sets []string) ([]pipeline.Operation, error) {
	kinds, err := selectKinds(names)
	if err != nil {
		return nil, err
	}

	overrides := make(map[pipeline.Kind][]string)

	for _, s := range sets {
		target, pair, ok := strings.Cut(s, ".")
		if !ok || !strings.Contains(pair, "=") {
			return nil, fmt.Errorf("invalid --set %q: expected op.key=value", s)
		}

		kind, err := pipeline.ParseKind(target)
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", s, err)
		}

		if !slices.Contains(kinds, kind) {
			return nil, fmt.Errorf("--set %q targets %s, which is not selected", s, kind)
		}

		overrides[kind] = append(overrides[kind], pair)
	}

	ops := make([]pipeline.Operation, 0, len(kinds))

	for _, kind := range kinds {
		params, err := pipeline.ParseParams(overrides[kind])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}

		op, err := pipeline.ParseOperation(kind.Slug(), params)
		if err != nil {
			return nil, err
		}

		ops = append(ops, op)
	}

	return ops, nil
}

func selectKinds(names []string) ([]pipeline.Kind, error) {
	if len(names) == 0 {
		return nil, errNoOperations
	}

	var kinds []pipeline.Kind

	for _, name := range names {
		if strings.EqualFold(name, "all") {
			for _, k := range pipeline.Kinds() {
				if !slices.Contains(kinds, k) {
					kinds = append(kinds, k)
				}
			}

			continue
		}

		kind, err := pipeline.ParseKind(name)
		if err != nil {
			return nil, err
		}

		if slices.Contains(kinds, kind) {
			return nil, fmt.Errorf("operation %s selected more than once", kind)
		}

		kinds = append(kinds, kind)
	}

	return kinds, nil
}
