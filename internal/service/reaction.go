package service

import "devconnector/internal/models"

// ReactionState is one user's standing on one post.
type ReactionState int

const (
	Neutral ReactionState = iota
	Liked
	Disliked
)

func (s ReactionState) String() string {
	switch s {
	case Liked:
		return "liked"
	case Disliked:
		return "disliked"
	default:
		return "neutral"
	}
}

// ReactionAction is a like or dislike request.
type ReactionAction int

const (
	ReactLike ReactionAction = iota
	ReactDislike
)

func (a ReactionAction) String() string {
	if a == ReactDislike {
		return "dislike"
	}
	return "like"
}

// NextReactionState applies action to current. Repeating the action that put
// the user in a state returns them to Neutral; the opposite action switches sides.
func NextReactionState(current ReactionState, action ReactionAction) ReactionState {
	switch action {
	case ReactLike:
		if current == Liked {
			return Neutral
		}
		return Liked
	case ReactDislike:
		if current == Disliked {
			return Neutral
		}
		return Disliked
	}
	return current
}

func stateFromKind(kind string) ReactionState {
	switch kind {
	case models.ReactionLike:
		return Liked
	case models.ReactionDislike:
		return Disliked
	default:
		return Neutral
	}
}

func kindFromState(s ReactionState) string {
	switch s {
	case Liked:
		return models.ReactionLike
	case Disliked:
		return models.ReactionDislike
	default:
		return ""
	}
}
