package trips

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// invitation waits for the invitee's answer. MessageID is the invitation
// message in the invitee's chat.
type invitation struct {
	ID        uuid.UUID
	TripID    int64
	InviterID int64
	MessageID int64
	CreatedAt time.Time
}

// invitations are keyed by invitee. They are written under the inviter's lock
// and read under the invitee's, so the table has its own mutex.
type invitations struct {
	mu      sync.Mutex
	pending map[int64][]invitation
}

func newInvitations() *invitations {
	return &invitations{pending: make(map[int64][]invitation)}
}

func (p *invitations) add(invitee int64, inv invitation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[invitee] = append(p.pending[invitee], inv)
}

// take removes the invitation shown in the given message.
func (p *invitations) take(invitee, messageID int64) (invitation, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.pending[invitee]
	i := slices.IndexFunc(list, func(inv invitation) bool { return inv.MessageID == messageID })
	if i < 0 {
		return invitation{}, false
	}
	inv := list[i]
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(p.pending, invitee)
	} else {
		p.pending[invitee] = list
	}
	return inv, true
}

// has reports whether the invitee already has an open invitation to the trip.
func (p *invitations) has(invitee, tripID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.ContainsFunc(p.pending[invitee], func(inv invitation) bool { return inv.TripID == tripID })
}

func (p *invitations) count(invitee int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending[invitee])
}

func (p *invitations) drop(invitee int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, invitee)
}
