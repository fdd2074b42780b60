// Command test_integration drives a running clustercheck server to the end of
// its labeling session, answering every proposal from a ground-truth file.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/agenthands/clustercheck/internal/codec"
	"github.com/agenthands/clustercheck/internal/core/cluster"
	"github.com/agenthands/clustercheck/internal/core/model"
)

const maxRounds = 10000

var baseURL = "http://localhost:8080"

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: test_integration TRUTH_FILE")
		os.Exit(2)
	}
	if v := os.Getenv("CLUSTERCHECK_URL"); v != "" {
		baseURL = v
	}

	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	truth, err := codec.LoadFile(os.Args[1], codec.DirLister{})
	if err != nil {
		fmt.Printf("FAILED: load truth: %v\n", err)
		os.Exit(1)
	}

	// 1. Answer proposals until exhausted
	fmt.Println("1. Answering proposals...")
	rounds := 0
	for ; rounds < maxRounds; rounds++ {
		var p model.Proposal
		if !sendRequest("GET", "/proposal", nil, &p) {
			fmt.Println("FAILED: Proposal")
			os.Exit(1)
		}
		if p.Exhausted {
			break
		}
		d := answer(truth.Actual, p)
		if !sendRequest("POST", "/decisions", d, nil) {
			fmt.Println("FAILED: Decision")
			os.Exit(1)
		}
	}
	if rounds == maxRounds {
		fmt.Println("FAILED: session did not exhaust")
		os.Exit(1)
	}
	fmt.Printf("PASSED: %d decisions\n", rounds)

	// 2. Scores
	fmt.Println("2. Scoring...")
	var scores struct {
		Aggregate model.Score `json:"aggregate"`
	}
	if !sendRequest("GET", "/scores", nil, &scores) {
		fmt.Println("FAILED: Scores")
		os.Exit(1)
	}
	fmt.Printf("PASSED: Scores %+v\n", scores.Aggregate)

	// 3. Save
	fmt.Println("3. Saving snapshot...")
	var saved struct {
		Path string `json:"path"`
	}
	if !sendRequest("POST", "/save", nil, &saved) {
		fmt.Println("FAILED: Save")
		os.Exit(1)
	}
	fmt.Printf("PASSED: Save %s\n", saved.Path)
}

// answer plays the reviewer: two images match iff truth clusters them together.
func answer(truth *cluster.Graph, p model.Proposal) map[string]interface{} {
	same := p.ImageA == p.ImageB || truth.Connected(p.ImageA, p.ImageB)

	kind := model.DecisionDifferent
	switch {
	case p.Mode == model.ModeSelfCheck && same:
		kind = model.DecisionSelfCheckPassed
	case p.Mode == model.ModeSelfCheck:
		kind = model.DecisionSelfCheckFailed
	case same:
		kind = model.DecisionSame
	}
	return map[string]interface{}{
		"kind":    kind,
		"left":    p.Left,
		"right":   p.Right,
		"image_a": p.ImageA,
		"image_b": p.ImageB,
	}
}

func sendRequest(method, endpoint string, payload interface{}, out interface{}) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			fmt.Printf("Error decoding response: %v\n", err)
			return false
		}
	}
	return true
}
