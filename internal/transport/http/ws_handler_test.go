package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"trivia-live/internal/app"
	"trivia-live/internal/domain"
	"trivia-live/internal/infra/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewSnapshotStore()
	bank := memory.NewQuestionBank(memory.NewStaticSetLoader(map[string][]domain.Question{
		"default": sampleQuestions(),
	}), time.Minute)
	registry := app.NewRoomRegistry(store, bank, "default", clockwork.NewRealClock())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(registry).ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", query, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readState(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	var state map[string]any
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&state); err != nil {
		t.Fatalf("read state: %v", err)
	}
	return state
}

// readUntilPhase drains state pushes until the room reaches the wanted phase.
func readUntilPhase(t *testing.T, conn *websocket.Conn, phase string) map[string]any {
	t.Helper()
	for i := 0; i < 10; i++ {
		state := readState(t, conn)
		if state["phase"] == phase {
			return state
		}
	}
	t.Fatalf("never saw phase %s", phase)
	return nil
}

func TestMissingRoomParamRejected(t *testing.T) {
	server := newTestServer(t)
	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWebSocketGameFlow(t *testing.T) {
	server := newTestServer(t)

	presenter := dial(t, server, "room=r1&role=presenter&connId=host")
	participant := dial(t, server, "room=r1&connId=p1")

	// both roles get a lobby snapshot on connect
	if state := readState(t, presenter); state["phase"] != "lobby" {
		t.Fatalf("presenter initial phase = %v", state["phase"])
	}
	if state := readState(t, participant); state["phase"] != "lobby" {
		t.Fatalf("participant initial phase = %v", state["phase"])
	}

	if err := participant.WriteJSON(map[string]any{"type": "join", "name": "Alice"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	state := readUntilPhase(t, presenter, "lobby")
	if state["totalParticipants"] != float64(1) {
		t.Fatalf("presenter should see 1 participant, got %v", state["totalParticipants"])
	}

	if err := presenter.WriteJSON(map[string]any{"type": "presenter_action", "action": "start"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	state = readUntilPhase(t, participant, "question")
	question, ok := state["question"].(map[string]any)
	if !ok {
		t.Fatalf("participant question payload missing: %v", state)
	}
	for _, field := range []string{"correctAnswer", "correctAnswers", "correctOrder"} {
		if _, leaked := question[field]; leaked {
			t.Fatalf("question payload leaks %s", field)
		}
	}

	// an instant answer: the question-start timestamp is endTime minus the
	// full 30s timer, which yields the maximum speed score
	endTime := int64(state["endTime"].(float64))
	answer := map[string]any{
		"type":      "submit_answer",
		"answer":    0,
		"timestamp": endTime - 30000,
	}
	if err := participant.WriteJSON(answer); err != nil {
		t.Fatalf("answer: %v", err)
	}

	// the only participant answered, so the question resolves immediately
	state = readUntilPhase(t, participant, "results")
	result, ok := state["myResult"].(map[string]any)
	if !ok {
		t.Fatalf("expected personal result, got %v", state)
	}
	if result["outcome"] != "correct" || result["pointsEarned"] != float64(1000) {
		t.Fatalf("expected correct/1000, got %v", result)
	}

	hostView := readUntilPhase(t, presenter, "results")
	results, ok := hostView["results"].(map[string]any)
	if !ok {
		t.Fatalf("presenter results missing: %v", hostView)
	}
	if results["correctAnswer"] != float64(0) {
		t.Fatalf("presenter sees ground truth after resolution, got %v", results["correctAnswer"])
	}
}

func TestUnknownMessagesAreDropped(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "room=r2&connId=p1")
	readState(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	if err := conn.WriteJSON(map[string]any{"type": "self_destruct"}); err != nil {
		t.Fatalf("write unknown: %v", err)
	}

	// the socket stays open and functional
	if err := conn.WriteJSON(map[string]any{"type": "join", "name": "Alice"}); err != nil {
		t.Fatalf("join after garbage: %v", err)
	}
	state := readState(t, conn)
	if state["phase"] != "lobby" {
		t.Fatalf("expected lobby push after join, got %v", state)
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Type:         domain.QuestionSingle,
			Text:         "Capital of France?",
			Options:      []string{"Paris", "Rome", "Berlin"},
			CorrectIndex: 0,
			TimerSeconds: 30,
		},
		{
			Type:         domain.QuestionSlider,
			Text:         "Population of Iceland?",
			Min:          100000,
			Max:          1000000,
			CorrectValue: 380000,
			TimerSeconds: 30,
		},
	}
}
