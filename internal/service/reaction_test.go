package service

import (
	"testing"

	"devconnector/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestNextReactionState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from   ReactionState
		action ReactionAction
		want   ReactionState
	}{
		{Neutral, ReactLike, Liked},
		{Neutral, ReactDislike, Disliked},
		{Liked, ReactLike, Neutral},
		{Liked, ReactDislike, Disliked},
		{Disliked, ReactLike, Liked},
		{Disliked, ReactDislike, Neutral},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.action.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, NextReactionState(tt.from, tt.action))
		})
	}
}

func TestNextReactionState_Sequences(t *testing.T) {
	t.Parallel()

	s := Neutral
	s = NextReactionState(s, ReactLike)
	s = NextReactionState(s, ReactLike)
	assert.Equal(t, Neutral, s, "like twice returns to neutral")

	s = NextReactionState(s, ReactLike)
	s = NextReactionState(s, ReactDislike)
	assert.Equal(t, Disliked, s, "like then dislike ends disliked")
}

func TestReactionKindMapping(t *testing.T) {
	t.Parallel()

	for _, s := range []ReactionState{Neutral, Liked, Disliked} {
		assert.Equal(t, s, stateFromKind(kindFromState(s)))
	}
	assert.Equal(t, models.ReactionLike, kindFromState(Liked))
	assert.Equal(t, models.ReactionDislike, kindFromState(Disliked))
	assert.Empty(t, kindFromState(Neutral))
	assert.Equal(t, Neutral, stateFromKind("bogus"))
}
