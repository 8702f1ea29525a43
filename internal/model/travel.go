package model

// TravelStatus is the state of one (user, country) pair.
type TravelStatus string

const (
	StatusNone     TravelStatus = "none"
	StatusVisited  TravelStatus = "visited"
	StatusWishlist TravelStatus = "wishlist"
)

// TravelOp is a mutation of a user's travel state.
type TravelOp int

const (
	OpMarkVisited TravelOp = iota + 1
	OpUnmarkVisited
	OpAddToWishlist
	OpRemoveFromWishlist
)

func (op TravelOp) String() string {
	switch op {
	case OpMarkVisited:
		return "mark_visited"
	case OpUnmarkVisited:
		return "unmark_visited"
	case OpAddToWishlist:
		return "add_to_wishlist"
	case OpRemoveFromWishlist:
		return "remove_from_wishlist"
	default:
		return "unknown"
	}
}

// TravelState is a consistent snapshot of a user's visited and wishlist sets.
// A country code never appears in both.
type TravelState struct {
	Visited  []string
	Wishlist []string
}

// StatusOf reports which set, if any, holds code.
func (s TravelState) StatusOf(code string) TravelStatus {
	for _, c := range s.Visited {
		if c == code {
			return StatusVisited
		}
	}
	for _, c := range s.Wishlist {
		if c == code {
			return StatusWishlist
		}
	}
	return StatusNone
}

// VisitedResponse is returned by GET and DELETE /api/visited.
type VisitedResponse struct {
	VisitedCountries []string `json:"visitedCountries"`
}

// WishlistResponse is returned by GET and DELETE /api/wishlist.
type WishlistResponse struct {
	WishlistCountries []string `json:"wishlistCountries"`
}

// TravelStateResponse carries both sets, used whenever an operation may
// have moved a code from one set to the other.
type TravelStateResponse struct {
	VisitedCountries  []string `json:"visitedCountries"`
	WishlistCountries []string `json:"wishlistCountries"`
}

// ToResponse renders both sets, never as JSON null.
func (s TravelState) ToResponse() TravelStateResponse {
	return TravelStateResponse{
		VisitedCountries:  nonNil(s.Visited),
		WishlistCountries: nonNil(s.Wishlist),
	}
}

func nonNil(codes []string) []string {
	if codes == nil {
		return []string{}
	}
	return codes
}
