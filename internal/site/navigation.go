package site

import (
	"fmt"

	"github.com/plutodev/plutogen/internal/models"
)

// Neighbor is one endpoint of a post page's bottom navigation.
type Neighbor struct {
	Label string
	Post  models.Post
}

// Neighbors resolves the chronological predecessor and successor of
// target among the published posts. published must be the snapshot's
// navigation order (created descending, slug ascending as tie-break)
// and non-empty; it is derived once per batch, never recomputed from a
// mutating source.
//
// At the ends the navigation wraps: the earliest post's predecessor is
// the newest post labeled "Last", and the newest post's successor is
// the earliest post labeled "First".
func Neighbors(target models.Post, published []models.Post) (prev, next Neighbor, err error) {
	idx := -1
	for i := range published {
		if published[i].Slug == target.Slug {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Neighbor{}, Neighbor{}, fmt.Errorf("post %q is not in the published set", target.Slug)
	}

	if idx == len(published)-1 {
		prev = Neighbor{Label: "Last", Post: published[0]}
	} else {
		prev = Neighbor{Label: "Prev", Post: published[idx+1]}
	}

	if idx == 0 {
		next = Neighbor{Label: "First", Post: published[len(published)-1]}
	} else {
		next = Neighbor{Label: "Next", Post: published[idx-1]}
	}

	return prev, next, nil
}
