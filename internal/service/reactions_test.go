package service

// Тесты реакций (reactions.go): переключение added/removed/updated и пересчёт голосов.

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/storage"
	"github.com/stretchr/testify/require"
)

func TestReact_Toggle(t *testing.T) {
	user := uuid.New()
	post := testPost(uuid.New())
	existing := &models.Reaction{ID: uuid.New(), UserID: user, PostID: post.ID, Type: models.ReactionUpvote}

	t.Run("added", func(t *testing.T) {
		env := newEnv(t)
		env.st.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
		env.st.EXPECT().ReactionByUser(gomock.Any(), post.ID, user).Return(nil, storage.ErrNotFound)
		env.st.EXPECT().AddReaction(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, r *models.Reaction) error {
				require.Equal(t, models.ReactionUpvote, r.Type)
				require.Equal(t, user, r.UserID)
				return nil
			})
		env.st.EXPECT().RecountVotes(gomock.Any(), post.ID).Return(1, 0, nil)

		res, err := env.svc.React(context.Background(), post.ID, user, models.ReactionUpvote)
		require.NoError(t, err)
		require.Equal(t, &ReactionResult{Action: models.ReactionAdded, Type: models.ReactionUpvote, Upvotes: 1}, res)
	})

	t.Run("same type removes", func(t *testing.T) {
		env := newEnv(t)
		env.st.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
		env.st.EXPECT().ReactionByUser(gomock.Any(), post.ID, user).Return(existing, nil)
		env.st.EXPECT().DeleteReaction(gomock.Any(), existing.ID).Return(nil)
		env.st.EXPECT().RecountVotes(gomock.Any(), post.ID).Return(0, 0, nil)

		res, err := env.svc.React(context.Background(), post.ID, user, models.ReactionUpvote)
		require.NoError(t, err)
		require.Equal(t, models.ReactionRemoved, res.Action)
	})

	t.Run("other type updates", func(t *testing.T) {
		env := newEnv(t)
		env.st.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
		env.st.EXPECT().ReactionByUser(gomock.Any(), post.ID, user).Return(existing, nil)
		env.st.EXPECT().UpdateReaction(gomock.Any(), existing.ID, models.ReactionDownvote, gomock.Any()).Return(nil)
		env.st.EXPECT().RecountVotes(gomock.Any(), post.ID).Return(0, 1, nil)

		res, err := env.svc.React(context.Background(), post.ID, user, models.ReactionDownvote)
		require.NoError(t, err)
		require.Equal(t, models.ReactionUpdated, res.Action)
		require.Equal(t, 1, res.Downvotes)
	})
}

func TestReact_Validation(t *testing.T) {
	env := newEnv(t)

	_, err := env.svc.React(context.Background(), uuid.New(), uuid.Nil, models.ReactionLike)
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = env.svc.React(context.Background(), uuid.New(), uuid.New(), "meh")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRemoveReaction(t *testing.T) {
	env := newEnv(t)
	user, postID := uuid.New(), uuid.New()
	r := &models.Reaction{ID: uuid.New()}

	env.st.EXPECT().ReactionByUser(gomock.Any(), postID, user).Return(r, nil)
	env.st.EXPECT().DeleteReaction(gomock.Any(), r.ID).Return(nil)
	env.st.EXPECT().RecountVotes(gomock.Any(), postID).Return(0, 0, nil)
	require.NoError(t, env.svc.RemoveReaction(context.Background(), postID, user))

	env.st.EXPECT().ReactionByUser(gomock.Any(), postID, user).Return(nil, storage.ErrNotFound)
	require.ErrorIs(t, env.svc.RemoveReaction(context.Background(), postID, user), ErrNotFound)
}

func TestReactionSummary(t *testing.T) {
	env := newEnv(t)
	post := testPost(uuid.New())
	sum := map[models.ReactionType]int{models.ReactionLike: 3}

	env.st.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
	env.st.EXPECT().ReactionSummary(gomock.Any(), post.ID).Return(sum, nil)

	got, err := env.svc.ReactionSummary(context.Background(), post.ID)
	require.NoError(t, err)
	require.Equal(t, sum, got)
}
