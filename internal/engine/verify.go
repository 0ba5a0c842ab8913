package engine

import (
	"bytes"
	"path/filepath"
)

// Verify reads back the nominated files under req.Root and checks that each
// exists and contains its markers. It never fails: unmet expectations are
// logged at warn level and reported in the returned Verification.
func (e *Engine) Verify(req VerifyRequest) *Verification {
	v := &Verification{Passed: true, Checks: []Check{}}

	if req.EntryList != "" {
		v.add(e.check(req.Root, req.EntryList, req.EntryMarkers))
	}
	for _, s := range req.Samples {
		v.add(e.check(req.Root, s.Path, s.Markers))
	}

	if v.Passed {
		e.logger.Info("verification passed", "root", req.Root, "checks", len(v.Checks))
		return v
	}
	for _, c := range v.Checks {
		if !c.OK() {
			e.logger.Warn("verification failed", "root", req.Root, "path", c.Path, "exists", c.Exists, "missing", c.Missing)
		}
	}
	return v
}

func (v *Verification) add(c Check) {
	v.Checks = append(v.Checks, c)
	if !c.OK() {
		v.Passed = false
	}
}

func (e *Engine) check(root, rel string, markers []string) Check {
	c := Check{Path: rel}
	if err := e.fs.ValidateRelPath(rel); err != nil {
		c.Missing = markers
		return c
	}

	data, err := e.fs.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		c.Missing = markers
		return c
	}
	c.Exists = true
	for _, m := range markers {
		if !bytes.Contains(data, []byte(m)) {
			c.Missing = append(c.Missing, m)
		}
	}
	return c
}
