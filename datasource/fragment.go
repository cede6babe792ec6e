package datasource

import (
	"github.com/jmgilman/go/directio"
	"github.com/jmgilman/go/directio/fs/core"
)

// FragmentComputer splits a file into input fragments along its storage
// blocks.
type FragmentComputer struct {
	// MinimumSize is the smallest fragment worth scheduling. Non-positive
	// values disable splitting.
	MinimumSize int64

	// PreferredSize is the target fragment size.
	PreferredSize int64

	// SplitBlocks splits blocks larger than PreferredSize.
	SplitBlocks bool

	// CombineBlocks merges adjacent small blocks up to PreferredSize.
	CombineBlocks bool
}

type span struct {
	start, end int64
	hosts      []string
}

func (s span) length() int64 { return s.end - s.start }

// Compute returns non-overlapping fragments covering [0, size) of path.
// Blocks may be nil, in which case the file is treated as a single block
// without locality.
func (c FragmentComputer) Compute(path string, size int64, blocks []core.BlockLocation) ([]directio.InputFragment, error) {
	spans := normalizeBlocks(size, blocks)
	if c.MinimumSize <= 0 || size <= c.MinimumSize {
		return toFragments(path, []span{{start: 0, end: size, hosts: dominantHosts(spans)}})
	}
	if c.SplitBlocks {
		spans = c.split(spans)
	}
	if c.CombineBlocks {
		spans = c.combine(spans)
	}
	return toFragments(path, spans)
}

// normalizeBlocks clips blocks to [0, size) and fills gaps so that the result
// covers the whole file in order.
func normalizeBlocks(size int64, blocks []core.BlockLocation) []span {
	var spans []span
	var pos int64
	for _, b := range blocks {
		start, end := max(b.Offset, pos), min(b.Offset+b.Length, size)
		if end <= start {
			continue
		}
		if start > pos {
			spans = append(spans, span{start: pos, end: start})
		}
		spans = append(spans, span{start: start, end: end, hosts: b.Hosts})
		pos = end
	}
	if pos < size || len(spans) == 0 {
		spans = append(spans, span{start: pos, end: size})
	}
	return spans
}

// split cuts oversized spans into equal pieces of at least MinimumSize.
func (c FragmentComputer) split(spans []span) []span {
	var out []span
	for _, s := range spans {
		if c.PreferredSize <= 0 || s.length() <= c.PreferredSize {
			out = append(out, s)
			continue
		}
		count := (s.length() + c.PreferredSize - 1) / c.PreferredSize
		if s.length()/count < c.MinimumSize {
			count = max(1, s.length()/c.MinimumSize)
		}
		piece := s.length() / count
		for i := int64(0); i < count; i++ {
			start := s.start + i*piece
			end := start + piece
			if i == count-1 {
				end = s.end
			}
			out = append(out, span{start: start, end: end, hosts: s.hosts})
		}
	}
	return out
}

// combine merges adjacent spans while the result stays within PreferredSize,
// and always absorbs spans smaller than MinimumSize.
func (c FragmentComputer) combine(spans []span) []span {
	var out []span
	var group []span
	flush := func() {
		if len(group) == 0 {
			return
		}
		out = append(out, span{
			start: group[0].start,
			end:   group[len(group)-1].end,
			hosts: dominantHosts(group),
		})
		group = nil
	}
	for _, s := range spans {
		if len(group) > 0 {
			current := s.start - group[0].start
			if current >= c.MinimumSize && current+s.length() > c.PreferredSize {
				flush()
			}
		}
		group = append(group, s)
	}
	flush()

	// A short tail joins its predecessor.
	if n := len(out); n > 1 && out[n-1].length() < c.MinimumSize {
		merged := []span{out[n-2], out[n-1]}
		out[n-2] = span{start: merged[0].start, end: merged[1].end, hosts: dominantHosts(merged)}
		out = out[:n-1]
	}
	return out
}

// dominantHosts returns the hosts holding the most bytes of spans.
func dominantHosts(spans []span) []string {
	weights := map[string]int64{}
	var order []string
	for _, s := range spans {
		for _, h := range s.hosts {
			if _, ok := weights[h]; !ok {
				order = append(order, h)
			}
			weights[h] += s.length()
		}
	}
	var best int64
	for _, h := range order {
		best = max(best, weights[h])
	}
	var hosts []string
	for _, h := range order {
		if weights[h] == best {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

func toFragments(path string, spans []span) ([]directio.InputFragment, error) {
	fragments := make([]directio.InputFragment, 0, len(spans))
	for _, s := range spans {
		f, err := directio.NewInputFragment(path, s.start, s.length(), s.hosts, nil)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, f)
	}
	return fragments, nil
}
