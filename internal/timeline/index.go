package timeline

// clipLoc addresses a clip inside a snapshot.
type clipLoc struct {
	track int
	clip  int
}

// clipIndex maps clip ids to their location. An index is built once per
// structural change and never mutated afterwards, so snapshots may share it.
type clipIndex map[string]clipLoc

func buildIndex(tracks []Track) clipIndex {
	idx := make(clipIndex, 8)
	for ti, t := range tracks {
		for ci, c := range t.Clips {
			if _, dup := idx[c.ID]; dup {
				continue // first match wins, same as a linear scan
			}
			idx[c.ID] = clipLoc{track: ti, clip: ci}
		}
	}
	return idx
}

// reindexed returns p with a freshly built clip index.
func (p Project) reindexed() Project {
	p.index = buildIndex(p.Tracks)
	return p
}

// locate finds a clip by id. The index is trusted only when it still points
// at a clip with that id; snapshots assembled outside this package (imports,
// decoded JSON, literals) carry no index and are scanned linearly.
func (p Project) locate(id string) (clipLoc, bool) {
	if id == "" {
		return clipLoc{}, false
	}
	if loc, ok := p.index[id]; ok && p.valid(loc, id) {
		return loc, true
	}
	for ti, t := range p.Tracks {
		for ci, c := range t.Clips {
			if c.ID == id {
				return clipLoc{track: ti, clip: ci}, true
			}
		}
	}
	return clipLoc{}, false
}

func (p Project) valid(loc clipLoc, id string) bool {
	if loc.track < 0 || loc.track >= len(p.Tracks) {
		return false
	}
	clips := p.Tracks[loc.track].Clips
	return loc.clip >= 0 && loc.clip < len(clips) && clips[loc.clip].ID == id
}

// trackIndex returns the position of the track with the given id, or -1.
func (p Project) trackIndex(id string) int {
	for i, t := range p.Tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
