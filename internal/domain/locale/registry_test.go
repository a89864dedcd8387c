package locale

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingua/internal/core/apperror"
	"lingua/internal/core/kv"
	"lingua/internal/core/kv/kvtest"
)

const testTable = "i18n"

func newTestRegistry(t *testing.T, store kv.Store, tenantID string) *Registry {
	t.Helper()
	r, err := NewRegistry(store, testTable, Scope{TenantID: tenantID})
	require.NoError(t, err)
	return r
}

func createLocales(t *testing.T, r *Registry, codes ...string) {
	t.Helper()
	for _, code := range codes {
		_, err := r.Create(context.Background(), CreateInput{Code: code})
		require.NoError(t, err)
	}
}

// assertSingleDefault checks that the pointer and the flags agree.
func assertSingleDefault(t *testing.T, r *Registry, want string) {
	t.Helper()
	ctx := context.Background()

	ptr, err := r.GetDefault(ctx)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	assert.Equal(t, want, ptr.Code)

	locales, err := r.List(ctx, ListParams{})
	require.NoError(t, err)
	var flagged []string
	for _, l := range locales {
		if l.Default {
			flagged = append(flagged, l.Code)
		}
	}
	assert.Equal(t, []string{want}, flagged)
}

func TestRegistry_CreateThenGetByCode(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, kvtest.New(), "root")

	for _, code := range []string{"en", "fr", "de-DE"} {
		_, err := r.Create(ctx, CreateInput{Code: code, Default: false})
		require.NoError(t, err)

		got, err := r.GetByCode(ctx, code)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, code, got.Code)
		assert.False(t, got.Default)
		assert.False(t, got.CreatedAt.IsZero())
	}
}

func TestRegistry_GetByCode_Missing(t *testing.T) {
	r := newTestRegistry(t, kvtest.New(), "root")

	got, err := r.GetByCode(context.Background(), "en")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRegistry_GetDefault_Unset(t *testing.T) {
	r := newTestRegistry(t, kvtest.New(), "root")

	got, err := r.GetDefault(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRegistry_Create_Duplicate(t *testing.T) {
	r := newTestRegistry(t, kvtest.New(), "root")
	createLocales(t, r, "en")

	_, err := r.Create(context.Background(), CreateInput{Code: "en"})

	require.True(t, apperror.IsDuplicate(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "locale", appErr.Details["entity"])
	assert.Equal(t, "en", appErr.Details["value"])
}

func TestRegistry_Create_EmptyCode(t *testing.T) {
	store := kvtest.New()
	r := newTestRegistry(t, store, "root")

	_, err := r.Create(context.Background(), CreateInput{})

	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Equal(t, 0, store.Calls().Total())
}

func TestRegistry_Update(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, kvtest.New(), "root")
	createLocales(t, r, "en")

	got, err := r.Update(ctx, "en", UpdateInput{Default: true})
	require.NoError(t, err)
	assert.Equal(t, "en", got.Code)
	assert.True(t, got.Default)

	_, err = r.Update(ctx, "fr", UpdateInput{Default: true})
	assert.True(t, apperror.IsNotFound(err))
}

func TestRegistry_Delete_Idempotent(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, kvtest.New(), "root")
	createLocales(t, r, "en")

	require.NoError(t, r.Delete(ctx, "en"))
	require.NoError(t, r.Delete(ctx, "en"))

	got, err := r.GetByCode(ctx, "en")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRegistry_UpdateDefault_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	r := newTestRegistry(t, store, "root")
	createLocales(t, r, "en", "fr")

	require.NoError(t, r.UpdateDefault(ctx, "en"))
	store.ResetCalls()

	require.NoError(t, r.UpdateDefault(ctx, "en"))

	calls := store.Calls()
	assert.Equal(t, 0, calls.Writes())
	assert.Equal(t, 1, calls.Reads)
	assertSingleDefault(t, r, "en")
}

func TestRegistry_UpdateDefault_Switch(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, kvtest.New(), "root")
	createLocales(t, r, "A", "B")
	require.NoError(t, r.UpdateDefault(ctx, "A"))

	require.NoError(t, r.UpdateDefault(ctx, "B"))

	a, err := r.GetByCode(ctx, "A")
	require.NoError(t, err)
	b, err := r.GetByCode(ctx, "B")
	require.NoError(t, err)
	ptr, err := r.GetDefault(ctx)
	require.NoError(t, err)

	assert.False(t, a.Default)
	assert.True(t, b.Default)
	assert.Equal(t, "B", ptr.Code)
}

func TestRegistry_UpdateDefault_InvariantHoldsAcrossSequence(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, kvtest.New(), "root")
	createLocales(t, r, "de", "en", "fr", "it")

	for _, code := range []string{"en", "fr", "de", "fr", "fr", "it", "en"} {
		require.NoError(t, r.UpdateDefault(ctx, code))
		assertSingleDefault(t, r, code)
	}
}

func TestRegistry_UpdateDefault_FirstDefaultWritesOneBatch(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	r := newTestRegistry(t, store, "root")
	createLocales(t, r, "en")
	store.ResetCalls()

	require.NoError(t, r.UpdateDefault(ctx, "en"))

	assert.Equal(t, kvtest.Calls{Reads: 1, Batches: 1}, store.Calls())
	assertSingleDefault(t, r, "en")
}

func TestRegistry_UpdateDefault_SwitchReadsPreviousLocale(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	r := newTestRegistry(t, store, "root")
	createLocales(t, r, "en", "fr")
	require.NoError(t, r.UpdateDefault(ctx, "en"))
	store.ResetCalls()

	require.NoError(t, r.UpdateDefault(ctx, "fr"))

	assert.Equal(t, kvtest.Calls{Reads: 2, Batches: 1}, store.Calls())
}

func TestRegistry_UpdateDefault_MissingLocale(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	r := newTestRegistry(t, store, "root")

	err := r.UpdateDefault(ctx, "en")

	assert.True(t, apperror.IsNotFound(err))
	if appErr, ok := apperror.AsAppError(err); assert.True(t, ok) {
		assert.Equal(t, "en", appErr.Details["id"])
	}
	_, ok := store.Peek(testTable, kv.Key{PK: r.Keys().Default, SK: "default"})
	assert.False(t, ok, "pointer must not be created when the batch fails")
}

func TestRegistry_UpdateDefault_FailedBatchLeavesNoPartialState(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	r := newTestRegistry(t, store, "root")
	createLocales(t, r, "en", "fr")
	boom := errors.New("connection reset")

	store.FailExecute = boom
	err := r.UpdateDefault(ctx, "en")
	assert.ErrorIs(t, err, boom)

	ptr, err := r.GetDefault(ctx)
	require.NoError(t, err)
	assert.Nil(t, ptr)
	en, err := r.GetByCode(ctx, "en")
	require.NoError(t, err)
	assert.False(t, en.Default)

	require.NoError(t, r.UpdateDefault(ctx, "en"))
	store.FailExecute = boom
	assert.ErrorIs(t, r.UpdateDefault(ctx, "fr"), boom)
	assertSingleDefault(t, r, "en")
}

func TestRegistry_UpdateDefault_ConcurrentSwitchIsRejected(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	first := newTestRegistry(t, store, "root")
	second := newTestRegistry(t, store, "root")
	createLocales(t, first, "de", "en", "fr")
	require.NoError(t, first.UpdateDefault(ctx, "en"))

	// second moves the default between first's read and first's batch.
	store.BeforeExecute = func() {
		store.BeforeExecute = nil
		require.NoError(t, second.UpdateDefault(ctx, "de"))
	}

	err := first.UpdateDefault(ctx, "fr")

	assert.True(t, apperror.IsConcurrentModification(err), "got %v", err)
	assertSingleDefault(t, first, "de")
}

func TestRegistry_UpdateDefault_ConcurrentFirstDefaultIsRejected(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	first := newTestRegistry(t, store, "root")
	second := newTestRegistry(t, store, "root")
	createLocales(t, first, "de", "en")

	store.BeforeExecute = func() {
		store.BeforeExecute = nil
		require.NoError(t, second.UpdateDefault(ctx, "de"))
	}

	err := first.UpdateDefault(ctx, "en")

	assert.True(t, apperror.IsConcurrentModification(err), "got %v", err)
	assertSingleDefault(t, first, "de")
}

func TestRegistry_UpdateDefault_PreviousLocaleDeleted(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, kvtest.New(), "root")
	createLocales(t, r, "en", "fr")
	require.NoError(t, r.UpdateDefault(ctx, "en"))
	require.NoError(t, r.Delete(ctx, "en"))

	require.NoError(t, r.UpdateDefault(ctx, "fr"))

	assertSingleDefault(t, r, "fr")
}

func TestRegistry_UpdateDefault_PreviousLocaleDeletedDuringSwitch(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	r := newTestRegistry(t, store, "root")
	createLocales(t, r, "en", "fr")
	require.NoError(t, r.UpdateDefault(ctx, "en"))

	// en disappears after UpdateDefault has read it but before the batch runs.
	store.BeforeExecute = func() {
		store.BeforeExecute = nil
		require.NoError(t, store.Delete(ctx, testTable, kv.Key{PK: r.Keys().Locale, SK: "en"}))
	}

	err := r.UpdateDefault(ctx, "fr")

	require.True(t, apperror.IsConcurrentModification(err), "got %v", err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "en", appErr.Details["code"])

	ptr, err := r.GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, "en", ptr.Code)
	fr, err := r.GetByCode(ctx, "fr")
	require.NoError(t, err)
	assert.False(t, fr.Default)

	require.NoError(t, r.UpdateDefault(ctx, "fr"))
	assertSingleDefault(t, r, "fr")
}

func TestNewRegistry_PreconditionsBeforeAnyStoreCall(t *testing.T) {
	store := kvtest.New()

	_, err := NewRegistry(store, testTable, Scope{})
	require.True(t, apperror.IsPrecondition(err))
	assert.Contains(t, err.Error(), "tenant missing")

	_, err = NewRegistry(store, testTable, Scope{TenantID: "root", Scheme: ContentLocaleScoped})
	require.True(t, apperror.IsPrecondition(err))
	assert.Contains(t, err.Error(), "locale missing")

	assert.Equal(t, 0, store.Calls().Total())
}

func TestNewRegistry_InvalidTable(t *testing.T) {
	_, err := NewRegistry(kvtest.New(), "I18N; --", Scope{TenantID: "root"})
	assert.Error(t, err)
}

func TestRegistry_List_TenantIsolationAndPointerExclusion(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	t1 := newTestRegistry(t, store, "T1")
	t2 := newTestRegistry(t, store, "T2")

	createLocales(t, t1, "fr", "en", "de")
	createLocales(t, t2, "it")
	require.NoError(t, t1.UpdateDefault(ctx, "en"))
	require.NoError(t, t2.UpdateDefault(ctx, "it"))

	// The pointer item exists under its own partition with sort key "default".
	_, ok := store.Peek(testTable, kv.Key{PK: "T#T1#L#D", SK: "default"})
	require.True(t, ok)

	locales, err := t1.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"de", "en", "fr"}, codes(locales))

	locales, err = t2.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"it"}, codes(locales))
}

func TestRegistry_List_Pagination(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, kvtest.New(), "root")
	createLocales(t, r, "it", "de", "fr", "en")

	tests := []struct {
		name   string
		params ListParams
		want   []string
	}{
		{"all", ListParams{}, []string{"de", "en", "fr", "it"}},
		{"first page", ListParams{Limit: 2}, []string{"de", "en"}},
		{"after cursor", ListParams{Limit: 2, After: "en"}, []string{"fr", "it"}},
		{"reverse", ListParams{Reverse: true}, []string{"it", "fr", "en", "de"}},
		{"reverse after cursor", ListParams{Reverse: true, After: "fr", Limit: 1}, []string{"en"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locales, err := r.List(ctx, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, codes(locales))
		})
	}
}

func TestRegistry_List_Empty(t *testing.T) {
	r := newTestRegistry(t, kvtest.New(), "root")

	locales, err := r.List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.NotNil(t, locales)
	assert.Empty(t, locales)
}

func TestRegistry_ContentLocaleScheme_SeparatesCatalogs(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()

	en, err := NewRegistry(store, testTable, Scope{TenantID: "root", ContentLocale: "en", Scheme: ContentLocaleScoped})
	require.NoError(t, err)
	de, err := NewRegistry(store, testTable, Scope{TenantID: "root", ContentLocale: "de", Scheme: ContentLocaleScoped})
	require.NoError(t, err)

	createLocales(t, en, "en")

	got, err := de.GetByCode(ctx, "en")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRegistry_EndToEndScenario(t *testing.T) {
	ctx := context.Background()
	r, err := NewRegistry(kvtest.New(), testTable, Scope{TenantID: "T1", ContentLocale: "en", Scheme: ContentLocaleScoped})
	require.NoError(t, err)
	assert.Equal(t, "T#T1#L#en#L", r.Keys().Locale)

	_, err = r.Create(ctx, CreateInput{Code: "en", Default: false})
	require.NoError(t, err)
	_, err = r.Create(ctx, CreateInput{Code: "fr", Default: false})
	require.NoError(t, err)
	require.NoError(t, r.UpdateDefault(ctx, "fr"))

	ptr, err := r.GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, &DefaultPointer{Code: "fr"}, ptr)

	fr, err := r.GetByCode(ctx, "fr")
	require.NoError(t, err)
	assert.True(t, fr.Default)

	en, err := r.GetByCode(ctx, "en")
	require.NoError(t, err)
	assert.False(t, en.Default)
}

func codes(locales []Locale) []string {
	out := make([]string, 0, len(locales))
	for _, l := range locales {
		out = append(out, l.Code)
	}
	return out
}
