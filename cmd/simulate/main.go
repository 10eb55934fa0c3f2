// Command simulate drives a full tournament against a running server: it
// creates a session, votes randomly through every matchup with occasional
// undos, and prints the final standings and leaderboard.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default configuration constants.
const (
	defaultNames    = "Aurora,Basil,Clover,Dahlia,Ember,Fern,Hazel,Indigo"
	defaultUndoRate = 0.05
	defaultTimeout  = 10 * time.Second
	runTimeout      = 5 * time.Minute
)

var outcomes = []string{"left_wins", "right_wins", "both_good", "neither_good", "tie"}

type matchView struct {
	SessionID   string  `json:"session_id"`
	MatchNumber int     `json:"match_number"`
	Left        string  `json:"left"`
	Right       string  `json:"right"`
	LeftRating  float64 `json:"left_rating"`
	RightRating float64 `json:"right_rating"`
	TotalPairs  int     `json:"total_pairs"`
}

type voteResponse struct {
	Status   string     `json:"status"`
	Finished bool       `json:"finished"`
	Next     *matchView `json:"next"`
}

type standing struct {
	Position int     `json:"position"`
	Name     string  `json:"name"`
	Rating   float64 `json:"rating"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
}

type standingsResponse struct {
	Finished  bool       `json:"finished"`
	Standings []standing `json:"standings"`
}

type client struct {
	baseURL string
	http    *http.Client
	verbose bool
}

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		names    = flag.String("names", defaultNames, "Comma-separated names to enter")
		undoRate = flag.Float64("undo", defaultUndoRate, "Probability of undoing a vote")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		topN     = flag.Int("top", 10, "Leaderboard entries to fetch afterwards")
		verbose  = flag.Bool("verbose", false, "Log every vote")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	rng := rand.New(rand.NewSource(*seed))
	c := &client{
		baseURL: strings.TrimRight(*baseURL, "/"),
		http:    &http.Client{Timeout: *timeout},
		verbose: *verbose,
	}

	field := strings.Split(*names, ",")
	for i := range field {
		field[i] = strings.TrimSpace(field[i])
	}

	if err := run(ctx, c, rng, field, *undoRate, *topN); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client, rng *rand.Rand, names []string, undoRate float64, topN int) error {
	var mv matchView
	if err := c.post(ctx, "/tournaments", map[string]any{"names": names}, &mv); err != nil {
		return fmt.Errorf("create tournament: %w", err)
	}
	fmt.Printf("session %s: %d names, %d matchups\n", mv.SessionID, len(names), mv.TotalPairs)

	base := "/tournaments/" + mv.SessionID
	votes, undos := 0, 0
	current := &mv
	for {
		outcome := outcomes[rng.Intn(len(outcomes))]
		if c.verbose {
			fmt.Printf("match %d: %s (%.0f) vs %s (%.0f) -> %s\n",
				current.MatchNumber, current.Left, current.LeftRating,
				current.Right, current.RightRating, outcome)
		}

		var vr voteResponse
		err := c.post(ctx, base+"/votes", map[string]any{
			"vote_id": uuid.NewString(),
			"outcome": outcome,
		}, &vr)
		if err != nil {
			return fmt.Errorf("submit vote: %w", err)
		}
		votes++

		if vr.Finished {
			break
		}
		current = vr.Next

		if rng.Float64() < undoRate {
			var back matchView
			if err := c.post(ctx, base+"/undo", nil, &back); err != nil {
				return fmt.Errorf("undo: %w", err)
			}
			undos++
			current = &back
		}
	}
	fmt.Printf("finished after %d votes (%d undos)\n", votes, undos)

	var sr standingsResponse
	if err := c.get(ctx, base+"/standings", &sr); err != nil {
		return fmt.Errorf("fetch standings: %w", err)
	}
	fmt.Println("\nfinal standings:")
	for _, st := range sr.Standings {
		fmt.Printf("  %2d. %-12s %7.1f  (%dW/%dL)\n", st.Position, st.Name, st.Rating, st.Wins, st.Losses)
	}

	// The archive pipeline is asynchronous; give it a beat before reading.
	time.Sleep(200 * time.Millisecond)

	var board []standingEntry
	if err := c.get(ctx, fmt.Sprintf("/leaderboard?limit=%d", topN), &board); err != nil {
		return fmt.Errorf("fetch leaderboard: %w", err)
	}
	fmt.Println("\nleaderboard:")
	for _, e := range board {
		fmt.Printf("  %2d. %-12s %7.1f\n", e.Rank, e.Name, e.Rating)
	}
	return nil
}

type standingEntry struct {
	Rank   int     `json:"rank"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}

func (c *client) post(ctx context.Context, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("%s %s: status %d (%s: %s)",
			req.Method, req.URL.Path, resp.StatusCode, apiErr.Code, apiErr.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
