package services

import (
	"context"
	"testing"
	"time"

	"masterclass.link/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachExistingContentRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.user(t, "instructor@example.com")
	for i := 0; i < 5; i++ {
		env.content(t, "Content", "Data")
	}

	draft, err := env.masterclasses.CreateDraft(ctx, instructor.ID)
	require.NoError(t, err)
	assert.True(t, draft.Draft)

	content5, err := env.store.Contents().FindByID(ctx, 5)
	require.NoError(t, err)
	require.NoError(t, env.masterclasses.AttachExistingContent(ctx, draft.ID, content5.ID))

	got, err := env.masterclasses.GetMasterclass(ctx, draft.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MasterclassContentID)
	assert.Equal(t, content5.ID, *got.MasterclassContentID)

	assert.ErrorIs(t, env.masterclasses.AttachExistingContent(ctx, draft.ID, 999), ErrContentNotFound)
	assert.ErrorIs(t, env.masterclasses.AttachExistingContent(ctx, 999, content5.ID), ErrMasterclassNotFound)
}

func TestCreateNewContentAndAttach(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.user(t, "instructor@example.com")
	draft, err := env.masterclasses.CreateDraft(ctx, instructor.ID)
	require.NoError(t, err)

	content, err := env.masterclasses.CreateNewContentAndAttach(ctx, draft.ID, " Go basics ", "Intro", "Technical")
	require.NoError(t, err)
	assert.Equal(t, "Go basics", content.Name)
	assert.Equal(t, "Technical", content.Category)

	got, err := env.masterclasses.GetMasterclass(ctx, draft.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MasterclassContent)
	assert.Equal(t, content.ID, got.MasterclassContent.ID)

	_, err = env.masterclasses.CreateNewContentAndAttach(ctx, draft.ID, "x", "y", "Cooking")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestSetLocationDetailsStoresBlankOptionalAsNull(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.user(t, "instructor@example.com")
	draft, err := env.masterclasses.CreateDraft(ctx, instructor.ID)
	require.NoError(t, err)

	require.NoError(t, env.masterclasses.SetLocationDetails(ctx, draft.ID, models.RemoteDetails{URL: "x", JoiningInstructions: ""}))

	got, err := env.masterclasses.GetMasterclass(ctx, draft.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RemoteJoiningInstructions)
	require.NotNil(t, got.RemoteURL)
	assert.Equal(t, "x", *got.RemoteURL)
	assert.True(t, got.Remote())

	require.NoError(t, env.masterclasses.SetLocationDetails(ctx, draft.ID, models.InPersonDetails{Room: "1", Floor: "2"}))
	got, err = env.masterclasses.GetMasterclass(ctx, draft.ID)
	require.NoError(t, err)
	assert.False(t, got.Remote())
	assert.Nil(t, got.RemoteURL)
	assert.Nil(t, got.BuildingInstructions)

	assert.ErrorIs(t, env.masterclasses.SetLocationDetails(ctx, draft.ID, nil), ErrLocationDetailsRequired)
}

func TestGetBookedMasterclasses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.user(t, "instructor@example.com")
	attendee := env.user(t, "attendee@example.com")
	content := env.content(t, "Content", "Data")

	first := env.published(t, instructor, content, 10)
	second := env.published(t, instructor, content, 10)
	env.published(t, instructor, content, 10)

	booked, err := env.masterclasses.GetBookedMasterclasses(ctx, attendee.ID)
	require.NoError(t, err)
	assert.NotNil(t, booked)
	assert.Empty(t, booked)

	require.NoError(t, env.bookings.Book(ctx, attendee, second.ID))
	require.NoError(t, env.bookings.Book(ctx, attendee, first.ID))

	booked, err = env.masterclasses.GetBookedMasterclasses(ctx, attendee.ID)
	require.NoError(t, err)
	ids := make([]uint, 0, len(booked))
	for _, m := range booked {
		ids = append(ids, m.ID)
	}
	assert.ElementsMatch(t, []uint{first.ID, second.ID}, ids)
}

func TestGetMasterclassContentRunBeforeIsDistinct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.user(t, "instructor@example.com")
	other := env.user(t, "other@example.com")
	a := env.content(t, "A", "Data")
	b := env.content(t, "B", "Data")
	c := env.content(t, "C", "Data")

	env.published(t, instructor, a, 5)
	env.published(t, instructor, a, 5)
	env.published(t, instructor, b, 5)
	env.published(t, other, c, 5)

	contents, err := env.masterclasses.GetMasterclassContentRunBefore(ctx, instructor.ID)
	require.NoError(t, err)
	require.Len(t, contents, 2)
	assert.Equal(t, "A", contents[0].Name)
	assert.Equal(t, "B", contents[1].Name)
}

func TestPublish(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.user(t, "instructor@example.com")
	content := env.content(t, "A", "Data")
	draft, err := env.masterclasses.CreateDraft(ctx, instructor.ID)
	require.NoError(t, err)

	err = env.masterclasses.Publish(ctx, draft.ID)
	var incomplete *IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []string{models.TaskContent, models.TaskSchedule, models.TaskLocation}, incomplete.Missing)
	assert.ErrorIs(t, err, ErrMasterclassIncomplete)

	require.NoError(t, env.masterclasses.AttachExistingContent(ctx, draft.ID, content.ID))
	require.NoError(t, env.masterclasses.SetSchedule(ctx, draft.ID, time.Now().Add(48*time.Hour), 12))
	require.NoError(t, env.masterclasses.SetLocationDetails(ctx, draft.ID, models.RemoteDetails{URL: "https://meet.example.com"}))
	require.NoError(t, env.masterclasses.Publish(ctx, draft.ID))

	published, err := env.masterclasses.ListPublished(ctx)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, draft.ID, published[0].ID)

	assert.ErrorIs(t, env.masterclasses.Publish(ctx, draft.ID), ErrMasterclassNotDraft)
}

func TestSetScheduleValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.user(t, "instructor@example.com")
	draft, err := env.masterclasses.CreateDraft(ctx, instructor.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.masterclasses.SetSchedule(ctx, draft.ID, time.Time{}, 5), ErrTimestampRequired)
	assert.ErrorIs(t, env.masterclasses.SetSchedule(ctx, draft.ID, time.Now(), 0), ErrInvalidCapacity)
}
