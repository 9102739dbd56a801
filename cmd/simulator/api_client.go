package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dom/trivia-night/internal/domain"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL + "/api/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
}

type Game struct {
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Status domain.GameStatus `json:"status"`
}

type JoinResponse struct {
	Player      domain.Player `json:"player"`
	AccessToken string        `json:"accessToken"`
}

// RegisterOrganizer creates a new organizer account
func (c *APIClient) RegisterOrganizer(baseName string) (*User, string, error) {
	body := map[string]string{
		"displayName": fmt.Sprintf("%s_%d", baseName, time.Now().UnixNano()%100000),
		"password":    "testpassword123",
	}

	var result AuthResponse
	if err := c.do(http.MethodPost, "/auth/register", body, "", http.StatusOK, &result); err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}
	return &result.User, result.AccessToken, nil
}

func (c *APIClient) CreateGame(token, title string) (*Game, error) {
	var g Game
	if err := c.do(http.MethodPost, "/games/", map[string]string{"title": title}, token, http.StatusCreated, &g); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return &g, nil
}

func (c *APIClient) AddTeam(token, gameID, name, color string) (*domain.Team, error) {
	var team domain.Team
	body := map[string]string{"name": name, "color": color}
	if err := c.do(http.MethodPost, "/games/"+gameID+"/teams", body, token, http.StatusCreated, &team); err != nil {
		return nil, fmt.Errorf("add team %s: %w", name, err)
	}
	return &team, nil
}

func (c *APIClient) AddRound(token, gameID string, body map[string]interface{}) (*domain.Round, error) {
	var r domain.Round
	if err := c.do(http.MethodPost, "/games/"+gameID+"/rounds", body, token, http.StatusCreated, &r); err != nil {
		return nil, fmt.Errorf("add round: %w", err)
	}
	return &r, nil
}

func (c *APIClient) AddQuestion(token, gameID, roundID string, q domain.Question) (*domain.Question, error) {
	var created domain.Question
	if err := c.do(http.MethodPost, "/games/"+gameID+"/rounds/"+roundID+"/questions", q, token, http.StatusCreated, &created); err != nil {
		return nil, fmt.Errorf("add question %q: %w", q.Title, err)
	}
	return &created, nil
}

// Join adds an anonymous player to a team
func (c *APIClient) Join(gameID, teamID, name string) (*JoinResponse, error) {
	var res JoinResponse
	body := map[string]string{"teamId": teamID, "name": name}
	if err := c.do(http.MethodPost, "/games/"+gameID+"/join", body, "", http.StatusOK, &res); err != nil {
		return nil, fmt.Errorf("join as %s: %w", name, err)
	}
	return &res, nil
}

// Command posts an organizer or player command under /games/{gameID}.
func (c *APIClient) Command(token, gameID, path string, body interface{}) error {
	return c.do(http.MethodPost, "/games/"+gameID+path, body, token, http.StatusOK, nil)
}

// Document fetches the committed content of a document key
func (c *APIClient) Document(token, key string, out interface{}) error {
	return c.do(http.MethodGet, "/documents?key="+url.QueryEscape(key), nil, token, http.StatusOK, out)
}

// HTTP helpers

func (c *APIClient) do(method, path string, body interface{}, token string, want int, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(bodyBytes))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
