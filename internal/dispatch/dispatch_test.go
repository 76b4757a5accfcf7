package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/voicecart/internal/interpreter"
	"github.com/nadzzz/voicecart/internal/language"
	"github.com/nadzzz/voicecart/internal/message"
	"github.com/nadzzz/voicecart/internal/recognizer"
	"github.com/nadzzz/voicecart/internal/session"
)

type fakeStore struct {
	mu       sync.Mutex
	catalog  []message.Product
	searches []string
	added    map[string]int
	err      error
}

func (f *fakeStore) SearchProducts(_ context.Context, query string) ([]message.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.catalog, nil
}

func (f *fakeStore) AddToCart(_ context.Context, productID string, quantity int) (*message.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.added == nil {
		f.added = make(map[string]int)
	}
	f.added[productID] += quantity
	return &message.Cart{ID: "c1", Items: []message.CartItem{{Product: productID, Quantity: f.added[productID]}}}, nil
}

// Cart lines are keyed by product ID.
func (f *fakeStore) GetCart(context.Context) (*message.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cartLocked(), f.err
}

func (f *fakeStore) UpdateItem(_ context.Context, itemID string, quantity int) (*message.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.added[itemID] = quantity
	return f.cartLocked(), nil
}

func (f *fakeStore) RemoveItem(_ context.Context, itemID string) (*message.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	delete(f.added, itemID)
	return f.cartLocked(), nil
}

func (f *fakeStore) ClearCart(context.Context) (*message.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.added = nil
	return f.cartLocked(), nil
}

func (f *fakeStore) cartLocked() *message.Cart {
	cart := &message.Cart{ID: "c1", Items: []message.CartItem{}}
	for id, qty := range f.added {
		cart.Items = append(cart.Items, message.CartItem{ID: id, Product: id, Quantity: qty})
	}
	return cart
}

// scripted replays a fixed list of events for every Start.
type scripted struct {
	events []recognizer.Event
	locale string
}

func (s *scripted) Name() string    { return "scripted" }
func (s *scripted) Available() bool { return true }

func (s *scripted) Start(ctx context.Context, in recognizer.Input) (<-chan recognizer.Event, error) {
	s.locale = in.Locale
	ch := make(chan recognizer.Event)
	go func() {
		defer close(ch)
		for _, ev := range s.events {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func TestHandle_TextAddMatched(t *testing.T) {
	store := &fakeStore{catalog: []message.Product{
		{ID: "p1", Name: "Basmati Rice"},
		{ID: "p2", Name: "rice"},
	}}
	d := New(interpreter.Rules{}, nil, store, "")

	res, err := d.Handle(context.Background(), &message.Message{Text: "add 2 kg rice"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.MessageID)
	assert.Empty(t, res.Error)
	require.NotNil(t, res.Command)
	assert.Equal(t, message.ActionAdd, res.Command.Action)
	assert.Equal(t, "kg", res.Command.Unit)
	assert.True(t, res.Matched)
	require.NotNil(t, res.Product)
	assert.Equal(t, "p2", res.Product.ID, "exact name beats earlier partial match")
	assert.Equal(t, 2, store.added["p2"], "unit never converts the quantity")
	require.NotNil(t, res.Cart)
	assert.Equal(t, "c1", res.Cart.ID)
}

func TestHandle_TextAddNoMatch(t *testing.T) {
	store := &fakeStore{}
	d := New(interpreter.Rules{}, nil, store, language.English)

	res, err := d.Handle(context.Background(), &message.Message{Text: "buy saffron"})
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Nil(t, res.Product)
	assert.Empty(t, store.added)
	assert.Equal(t, []string{"saffron"}, store.searches)
}

func TestHandle_TextSearch(t *testing.T) {
	store := &fakeStore{catalog: []message.Product{{ID: "p3", Name: "Milk"}}}
	d := New(interpreter.Rules{}, nil, store, "")

	res, err := d.Handle(context.Background(), &message.Message{Text: "search for milk"})
	require.NoError(t, err)
	assert.Equal(t, message.ActionSearch, res.Command.Action)
	assert.Len(t, res.Products, 1)
	assert.Empty(t, store.added)
}

func TestHandle_DryRun(t *testing.T) {
	store := &fakeStore{catalog: []message.Product{{ID: "p1", Name: "rice"}}}
	d := New(interpreter.Rules{}, nil, store, "")

	res, err := d.Handle(context.Background(), &message.Message{Text: "add rice", DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, message.ActionAdd, res.Command.Action)
	assert.Empty(t, store.searches)
	assert.False(t, res.Matched)
}

func TestHandle_StorefrontError(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	d := New(interpreter.Rules{}, nil, store, "")

	res, err := d.Handle(context.Background(), &message.Message{Text: "add rice"})
	require.NoError(t, err, "failures are reported in the result")
	assert.Contains(t, res.Error, "connection refused")
	require.NotNil(t, res.Command)
}

func TestHandle_NoStorefront(t *testing.T) {
	d := New(interpreter.Rules{}, nil, nil, language.Tamil)

	res, err := d.Handle(context.Background(), &message.Message{Text: "2 kilo arisi"})
	require.NoError(t, err)
	assert.Equal(t, language.Tamil, res.Command.Language)
	assert.Equal(t, "arisi", res.Command.ProductName)
	assert.Equal(t, 2, res.Command.Quantity)
	assert.Empty(t, res.Error)
}

func TestHandle_Empty(t *testing.T) {
	d := New(interpreter.Rules{}, nil, nil, "")

	res, err := d.Handle(context.Background(), &message.Message{ID: "m1", Text: "   "})
	require.NoError(t, err)
	assert.Equal(t, "m1", res.MessageID)
	assert.Nil(t, res.Command)
	assert.NotEmpty(t, res.Error)
}

func TestHandle_AudioUnsupported(t *testing.T) {
	d := New(interpreter.Rules{}, recognizer.Unsupported{}, nil, "")

	res, err := d.Handle(context.Background(), &message.Message{Audio: []byte{1, 2, 3}})
	require.NoError(t, err)
	assert.Nil(t, res.Command)
	assert.Equal(t, "voice input is not available on this server", res.Error)
}

func TestHandle_Audio(t *testing.T) {
	rec := &scripted{events: []recognizer.Event{
		{Kind: recognizer.EventInterim, Transcript: "add"},
		{Kind: recognizer.EventFinal, Transcript: "biscuit 3 packet danna"},
		{Kind: recognizer.EventEnd},
	}}
	store := &fakeStore{catalog: []message.Product{{ID: "b1", Name: "Biscuits"}}}
	d := New(interpreter.Rules{}, rec, store, "")

	res, err := d.Handle(context.Background(), &message.Message{
		Audio:    []byte("RIFF"),
		Language: language.Sinhala,
	})
	require.NoError(t, err)
	assert.Equal(t, language.Sinhala, rec.locale)
	require.NotNil(t, res.Command)
	assert.Equal(t, "biscuit 3 packet danna", res.Transcript)
	assert.True(t, res.Matched)
	assert.Equal(t, 3, store.added["b1"])
}

func TestHandle_AudioRecognizerError(t *testing.T) {
	rec := &scripted{events: []recognizer.Event{
		{Kind: recognizer.EventError, Err: &recognizer.Error{Code: recognizer.CodeNetwork}},
		{Kind: recognizer.EventEnd},
	}}
	d := New(interpreter.Rules{}, rec, nil, "")

	res, err := d.Handle(context.Background(), &message.Message{Audio: []byte("RIFF")})
	require.NoError(t, err)
	assert.Nil(t, res.Command)
	assert.Equal(t, "speech recognition failed: network", res.Error)
}

func TestHandle_AudioNoSpeech(t *testing.T) {
	rec := &scripted{events: []recognizer.Event{
		{Kind: recognizer.EventFinal, Transcript: "  "},
		{Kind: recognizer.EventEnd},
	}}
	d := New(interpreter.Rules{}, rec, nil, "")

	res, err := d.Handle(context.Background(), &message.Message{Audio: []byte("RIFF")})
	require.NoError(t, err)
	assert.Equal(t, "no speech was recognized, try again", res.Error)
}

func TestBestMatch(t *testing.T) {
	products := []message.Product{
		{ID: "1", Name: "Tomato Ketchup"},
		{ID: "2", Name: "Cherry Tomatoes"},
		{ID: "3", Name: "Tomato"},
	}
	assert.Equal(t, "3", bestMatch(products, "tomato").ID)
	assert.Equal(t, "2", bestMatch(products, "cherry").ID)
	assert.Equal(t, "1", bestMatch(products, "passata").ID)
	assert.Nil(t, bestMatch(nil, "tomato"))
}

type recordingObserver struct {
	mu       sync.Mutex
	states   []session.State
	interims []string
}

func (o *recordingObserver) StateChanged(st session.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, st)
}

func (o *recordingObserver) Interim(t string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.interims = append(o.interims, t)
}

func TestListen_Feed(t *testing.T) {
	store := &fakeStore{catalog: []message.Product{{ID: "p9", Name: "sugar"}}}
	d := New(interpreter.Rules{}, nil, store, "")
	feed := recognizer.NewFeed(4)
	obs := &recordingObserver{}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, feed.Push(ctx, recognizer.Event{Kind: recognizer.EventInterim, Transcript: "add one"}))
	require.NoError(t, feed.Push(ctx, recognizer.Event{Kind: recognizer.EventFinal, Transcript: "Add 1 kg sugar."}))

	res := d.Listen(ctx, SessionRequest{
		MessageID:  "ws-1",
		Transport:  "websocket",
		Recognizer: feed,
		Observer:   obs,
	})

	assert.Equal(t, "ws-1", res.MessageID)
	assert.Empty(t, res.Error)
	require.NotNil(t, res.Command)
	assert.Equal(t, language.Default, res.Command.Language)
	assert.Equal(t, "sugar", res.Command.ProductName)
	assert.True(t, res.Matched)
	assert.Equal(t, []string{"add one"}, obs.interims)
	assert.Equal(t, []session.State{
		session.StateListening, session.StateProcessing, session.StateSuccess, session.StateIdle,
	}, obs.states)
}

func TestListen_Cancelled(t *testing.T) {
	d := New(interpreter.Rules{}, nil, nil, "")
	feed := recognizer.NewFeed(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := d.Listen(ctx, SessionRequest{Recognizer: feed, Transport: "websocket"})
	assert.NotEmpty(t, res.MessageID)
	assert.Nil(t, res.Command)
	assert.Equal(t, "listening cancelled", res.Error)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", outcome(nil))
	assert.Equal(t, "cancelled", outcome(context.Canceled))
	assert.Equal(t, "no_result", outcome(session.ErrNoResult))
	assert.Equal(t, "error", outcome(&recognizer.Error{Code: recognizer.CodeAborted}))
}

func TestCartOperations(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{added: map[string]int{"p1": 1, "p2": 4}}
	d := New(interpreter.Rules{}, nil, store, "")

	cart, err := d.Cart(ctx)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)

	cart, err = d.UpdateCartItem(ctx, "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, store.added["p1"])
	assert.Len(t, cart.Items, 2)

	cart, err = d.RemoveCartItem(ctx, "p2")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p1", cart.Items[0].ID)

	cart, err = d.ClearCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartOperations_Rejected(t *testing.T) {
	ctx := context.Background()
	d := New(interpreter.Rules{}, nil, &fakeStore{}, "")

	_, err := d.UpdateCartItem(ctx, "p1", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = d.UpdateCartItem(ctx, " ", 2)
	assert.ErrorIs(t, err, ErrMissingItem)
	_, err = d.RemoveCartItem(ctx, "")
	assert.ErrorIs(t, err, ErrMissingItem)

	failing := New(interpreter.Rules{}, nil, &fakeStore{err: errors.New("boom")}, "")
	_, err = failing.ClearCart(ctx)
	assert.ErrorContains(t, err, "clearing cart: boom")

	off := New(interpreter.Rules{}, nil, nil, "")
	_, err = off.Cart(ctx)
	assert.ErrorIs(t, err, ErrNoStorefront)
	_, err = off.UpdateCartItem(ctx, "p1", 1)
	assert.ErrorIs(t, err, ErrNoStorefront)
	_, err = off.RemoveCartItem(ctx, "p1")
	assert.ErrorIs(t, err, ErrNoStorefront)
	_, err = off.ClearCart(ctx)
	assert.ErrorIs(t, err, ErrNoStorefront)
}
