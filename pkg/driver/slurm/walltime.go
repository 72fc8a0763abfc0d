package slurm

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// maxWalltime is the spec's rejection threshold: a walltime at or
// above 100 hours is almost always a unit mistake (e.g. minutes
// supplied where hours were expected) rather than a real request.
const maxWalltime = 100 * time.Hour

// ParseWalltime accepts either a Go duration string or a Slurm-style
// "HH:MM:SS" string, rejecting anything at or past maxWalltime.
func ParseWalltime(s string) (time.Duration, error) {
	d, err := parseHMS(s)
	if err != nil {
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("slurm: invalid walltime %q: must be HH:MM:SS or a Go duration", s)
		}
	}
	if d >= maxWalltime {
		return 0, fmt.Errorf("slurm: walltime %s is at or above the %s rejection threshold", d, maxWalltime)
	}
	return d, nil
}

func parseHMS(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("not HH:MM:SS")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, err
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}

// FormatWalltime renders d as Slurm's HH:MM:SS directive value.
func FormatWalltime(d time.Duration) string {
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
