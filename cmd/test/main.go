package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/BerylCAtieno/market-sim-agent/internal/models"
	"github.com/spf13/cobra"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
)

const defaultScenario = "Raise the price of every coffee drink by $0.75 to cover rising bean costs."

type TestClient struct {
	baseURL  string
	scenario string
	client   *http.Client
}

func NewTestClient(baseURL, scenario string) *TestClient {
	return &TestClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		scenario: scenario,
		client: &http.Client{
			// A full panel is serialized through the throttle.
			Timeout: 3 * time.Minute,
		},
	}
}

var (
	baseURL  string
	scenario string
)

var rootCmd = &cobra.Command{
	Use:   "market-sim-test [all|health|agent-card|react|insights|chat|a2a]",
	Short: "Smoke tests against a running Market Simulation Agent",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		testType := "all"
		if len(args) == 1 {
			testType = args[0]
		}

		client := NewTestClient(baseURL, scenario)

		printHeader("Market Simulation Agent - Test Suite")
		fmt.Printf("%sBase URL: %s%s\n\n", colorCyan, client.baseURL, colorReset)

		tests := map[string]func() bool{
			"health":     client.testHealthCheck,
			"agent-card": client.testAgentCard,
			"react":      client.testReact,
			"insights":   client.testInsights,
			"chat":       client.testChat,
			"a2a":        client.testA2A,
		}
		if testType == "all" {
			client.runAllTests()
			return nil
		}
		fn, ok := tests[testType]
		if !ok {
			return fmt.Errorf("unknown test type: %s (available: all, health, agent-card, react, insights, chat, a2a)", testType)
		}
		if !fn() {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&baseURL, "url", "u", "http://localhost:8080", "Base URL of the agent")
	rootCmd.Flags().StringVarP(&scenario, "scenario", "s", defaultScenario, "Scenario description for react and a2a tests")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (tc *TestClient) runAllTests() {
	tests := []struct {
		name string
		fn   func() bool
	}{
		{"Health Check", tc.testHealthCheck},
		{"Agent Card", tc.testAgentCard},
		{"Scenario Reactions", tc.testReact},
		{"Insights", tc.testInsights},
		{"Persona Chat", tc.testChat},
		{"A2A Simulation", tc.testA2A},
	}

	passed := 0
	failed := 0

	for _, test := range tests {
		if test.fn() {
			passed++
		} else {
			failed++
		}
		fmt.Println()
	}

	printHeader("Test Summary")
	fmt.Printf("%sPassed: %d%s\n", colorGreen, passed, colorReset)
	fmt.Printf("%sFailed: %d%s\n", colorRed, failed, colorReset)
	fmt.Printf("Total: %d\n", passed+failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func (tc *TestClient) testHealthCheck() bool {
	printTestHeader("Testing Health Check Endpoint")

	status, body, err := tc.do(http.MethodGet, "/health", nil)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		return false
	}
	if string(body) != "OK" {
		printError(fmt.Sprintf("Expected body 'OK', got '%s'", string(body)))
		return false
	}

	printSuccess("Health check passed")
	return true
}

func (tc *TestClient) testAgentCard() bool {
	printTestHeader("Testing Agent Card Endpoint")

	status, body, err := tc.do(http.MethodGet, "/.well-known/agent.json", nil)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		return false
	}

	var agentCard map[string]interface{}
	if err := json.Unmarshal(body, &agentCard); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	for _, field := range []string{"name", "description", "url", "version", "capabilities", "skills"} {
		if _, ok := agentCard[field]; !ok {
			printError(fmt.Sprintf("Missing required field: %s", field))
			return false
		}
	}

	printSuccess("Agent card is valid")
	printJSON(body)
	return true
}

func (tc *TestClient) testReact() bool {
	printTestHeader("Testing Scenario Reactions")
	fmt.Printf("%sScenario:%s %s\n\n", colorCyan, colorReset, tc.scenario)

	status, body, err := tc.do(http.MethodPost, "/api/agents/react", map[string]interface{}{
		"agents":              samplePanel(),
		"business":            sampleBusiness(),
		"scenarioType":        "price_change",
		"scenarioDescription": tc.scenario,
	})
	if !expectOK(status, body, err) {
		return false
	}

	var result struct {
		models.ReactionResult
		RunID string `json:"runId"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	if len(result.Reactions) != len(samplePanel()) {
		printError(fmt.Sprintf("Expected %d reactions, got %d", len(samplePanel()), len(result.Reactions)))
		return false
	}

	printSuccess("Every persona reacted")
	for _, r := range result.Reactions {
		fmt.Printf("  %s%-14s%s %-9s %+.2f  %s\n", colorPurple, r.AgentName, colorReset, r.EmotionalTone, r.SentimentDelta, r.Feedback)
	}
	s := result.Summary
	fmt.Printf("\n%sSummary:%s avg %.2f, shift %+.2f, +%d / =%d / -%d", colorGreen, colorReset,
		s.AverageSentiment, s.SentimentDelta, s.PositiveCount, s.NeutralCount, s.NegativeCount)
	if result.RunID != "" {
		fmt.Printf(" (run %s)", result.RunID)
	}
	fmt.Println()
	return true
}

func (tc *TestClient) testInsights() bool {
	printTestHeader("Testing Insights")

	status, body, err := tc.do(http.MethodPost, "/api/agents/insights", map[string]interface{}{
		"agents":   samplePanel(),
		"business": sampleBusiness(),
	})
	if !expectOK(status, body, err) {
		return false
	}

	var insight models.Insight
	if err := json.Unmarshal(body, &insight); err != nil || insight.Summary == "" {
		printError("Insight response is missing a summary")
		return false
	}

	printSuccess("Insights generated")
	printJSON(body)
	return true
}

func (tc *TestClient) testChat() bool {
	printTestHeader("Testing Persona Chat")

	panel := samplePanel()
	status, body, err := tc.do(http.MethodPost, "/api/agents/chat", map[string]interface{}{
		"agent":    panel[0],
		"business": sampleBusiness(),
		"message":  "What would make you visit us more often?",
		"history":  []models.ChatMessage{},
	})
	if !expectOK(status, body, err) {
		return false
	}

	var reply struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &reply); err != nil || reply.Response == "" {
		printError("Chat response is empty")
		return false
	}

	printSuccess("Persona answered")
	fmt.Printf("  %s%s:%s %s\n", colorPurple, panel[0].Name, colorReset, reply.Response)
	return true
}

func (tc *TestClient) testA2A() bool {
	printTestHeader("Testing A2A Simulation")

	data, _ := json.Marshal(map[string]interface{}{
		"agents":       samplePanel(),
		"business":     sampleBusiness(),
		"scenarioType": "price_change",
	})
	request := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      fmt.Sprintf("test-%d", time.Now().Unix()),
		"method":  "message/send",
		"params": map[string]interface{}{
			"message": map[string]interface{}{
				"kind": "message",
				"role": "user",
				"parts": []map[string]interface{}{
					{"kind": "text", "text": tc.scenario},
					{"kind": "data", "data": json.RawMessage(data)},
				},
			},
			"configuration": map[string]interface{}{
				"blocking":            true,
				"acceptedOutputModes": []string{"text", "data"},
			},
		},
	}

	status, body, err := tc.do(http.MethodPost, "/a2a/simulator", request)
	if !expectOK(status, body, err) {
		return false
	}

	var response struct {
		Error  interface{} `json:"error"`
		Result struct {
			Status struct {
				State   string `json:"state"`
				Message struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"message"`
			} `json:"status"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	if response.Error != nil {
		printError("Request returned an error")
		printJSON(body)
		return false
	}
	if response.Result.Status.State != "completed" {
		printError(fmt.Sprintf("Expected state 'completed', got '%s'", response.Result.Status.State))
		return false
	}

	printSuccess("A2A simulation completed successfully")
	fmt.Println(strings.Repeat("=", 80))
	for _, p := range response.Result.Status.Message.Parts {
		fmt.Println(p.Text)
	}
	fmt.Println(strings.Repeat("=", 80))
	return true
}

func (tc *TestClient) do(method, path string, payload interface{}) (int, []byte, error) {
	url := tc.baseURL + path
	fmt.Printf("%s %s\n", method, url)

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}

func expectOK(status int, body []byte, err error) bool {
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status == http.StatusTooManyRequests {
		printError("Rate limited by the model API")
		printJSON(body)
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		fmt.Printf("Response: %s\n", string(body))
		return false
	}
	return true
}

func sampleBusiness() models.Business {
	return models.Business{
		ID:              "biz-001",
		Name:            "Bean There Coffee",
		Type:            "Specialty coffee shop",
		Tagline:         "Small batch, big flavor",
		Description:     "Neighborhood cafe roasting its own beans, with pastries baked daily.",
		Address:         "412 Elm Street",
		PriceRange:      models.PriceModerate,
		Rating:          4.5,
		EstablishedYear: 2017,
		Products: []models.Product{
			{Name: "Latte", Category: "Coffee", Price: 5.25, Description: "Double shot with steamed milk", IsPopular: true},
			{Name: "Cold Brew", Category: "Coffee", Price: 4.75, Description: "Steeped 18 hours"},
			{Name: "Cardamom Bun", Category: "Bakery", Price: 3.95, Description: "Swedish style, baked each morning", IsNew: true},
		},
	}
}

func samplePanel() []models.Agent {
	return []models.Agent{
		{
			ID: "agent-1", Name: "Maya Chen", Age: 24, PersonaLabel: "Budget Student", Occupation: "Graduate student",
			IncomeCategory: models.IncomeLow, AnnualIncome: 22000, CurrentSentiment: 0.4, LikelihoodToVisit: 70, SpendingPrediction: 12,
			Bio: "Studies at the cafe most afternoons.",
			Preferences: models.AgentPreferences{
				PriceSensitivity: 0.9, QualityImportance: 0.5, ConvenienceImportance: 0.8, SocialInfluence: 0.6,
				HealthConsciousness: 0.4, Adventurousness: 0.6, BrandLoyalty: 0.3, PreferredCategories: []string{"Coffee"},
			},
		},
		{
			ID: "agent-2", Name: "Robert Hale", Age: 58, PersonaLabel: "Loyal Regular", Occupation: "Accountant",
			IncomeCategory: models.IncomeUpperMiddle, AnnualIncome: 96000, CurrentSentiment: 0.7, LikelihoodToVisit: 90, SpendingPrediction: 30,
			Bio: "Has ordered the same latte every weekday for five years.",
			Preferences: models.AgentPreferences{
				PriceSensitivity: 0.2, QualityImportance: 0.8, ConvenienceImportance: 0.6, SocialInfluence: 0.2,
				HealthConsciousness: 0.5, Adventurousness: 0.1, BrandLoyalty: 0.95, PreferredCategories: []string{"Coffee", "Bakery"},
			},
		},
		{
			ID: "agent-3", Name: "Priya Nair", Age: 33, PersonaLabel: "Health-Conscious Professional", Occupation: "Nurse",
			IncomeCategory: models.IncomeMiddle, AnnualIncome: 68000, CurrentSentiment: -0.1, LikelihoodToVisit: 35, SpendingPrediction: 9,
			Bio: "Grabs coffee between shifts when the line is short.",
			Preferences: models.AgentPreferences{
				PriceSensitivity: 0.5, QualityImportance: 0.7, ConvenienceImportance: 0.9, SocialInfluence: 0.3,
				HealthConsciousness: 0.9, Adventurousness: 0.4, BrandLoyalty: 0.4, PreferredCategories: []string{"Tea"},
			},
		},
	}
}

func printHeader(text string) {
	fmt.Printf("\n%s%s%s\n", colorBlue, strings.Repeat("=", len(text)+4), colorReset)
	fmt.Printf("%s= %s =%s\n", colorBlue, text, colorReset)
	fmt.Printf("%s%s%s\n\n", colorBlue, strings.Repeat("=", len(text)+4), colorReset)
}

func printTestHeader(text string) {
	fmt.Printf("%s[TEST] %s%s\n", colorCyan, text, colorReset)
	fmt.Println(strings.Repeat("-", 80))
}

func printSuccess(text string) {
	fmt.Printf("%s✓ %s%s\n", colorGreen, text, colorReset)
}

func printError(text string) {
	fmt.Printf("%s✗ %s%s\n", colorRed, text, colorReset)
}

func printJSON(data []byte) {
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, data, "", "  "); err == nil {
		fmt.Printf("\n%sResponse:%s\n%s\n", colorYellow, colorReset, prettyJSON.String())
	}
}
