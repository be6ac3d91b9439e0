// upsellctl is a CLI tool for exercising the upsell API during
// development. Each command performs a single operation, making it
// composable for scripts.
//
// The extension endpoints require a platform session token; upsellctl
// mints an equivalent development token from the app credentials, so a
// local server configured with the same key and secret accepts it.
//
// Commands:
//
//	upsellctl offer  -server URL -shop DOMAIN -key KEY -secret SECRET
//	upsellctl sign   -server URL -shop DOMAIN -key KEY -secret SECRET -variant GID -ref REF [-qty N]
//	upsellctl decode -secret SECRET -token TOKEN
//	upsellctl health -server URL
//
// Examples:
//
//	upsellctl offer -shop demo.myshopify.com -key $APP_API_KEY -secret $APP_API_SECRET
//	TOKEN=$(upsellctl sign -q -shop demo.myshopify.com -key $APP_API_KEY -secret $APP_API_SECRET \
//	    -variant gid://shopify/ProductVariant/46911531614440 -ref ref-123 -qty 2)
//	upsellctl decode -secret $APP_API_SECRET -token $TOKEN
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var client = &http.Client{Timeout: 30 * time.Second}

// Global flags (apply to all commands)
var (
	serverURL string
	quiet     bool
	noColor   bool
	verbose   bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen = "", "", ""
	colorYellow, colorCyan, colorGray, colorBold = "", "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "offer":
		runOffer(args)
	case "sign":
		runSign(args)
	case "decode":
		runDecode(args)
	case "health":
		runHealth(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `upsellctl - upsell API test tool

Usage:
  upsellctl <command> [options]

Commands:
  offer     Resolve the offer a shop's customers would see
  sign      Sign a changeset for a variant and purchase reference
  decode    Decode (and verify) a signed changeset token
  health    Check server liveness

Examples:
  # Resolve an offer
  upsellctl offer -shop demo.myshopify.com -key $APP_API_KEY -secret $APP_API_SECRET

  # Sign and capture the token
  TOKEN=$(upsellctl sign -q -shop demo.myshopify.com -key $APP_API_KEY -secret $APP_API_SECRET \
      -variant gid://shopify/ProductVariant/46911531614440 -ref ref-123 -qty 2)

  # Inspect the signed payload
  upsellctl decode -secret $APP_API_SECRET -token $TOKEN

Run 'upsellctl <command> -h' for command-specific options.
`)
}

// commonFlags registers the flags shared by the API commands.
func commonFlags(fs *flag.FlagSet) (shop, apiKey, apiSecret *string) {
	fs.StringVar(&serverURL, "server", "http://localhost:8080", "Upsell server base URL")
	shop = fs.String("shop", "", "Shop domain (required)")
	apiKey = fs.String("key", os.Getenv("APP_API_KEY"), "App API key")
	apiSecret = fs.String("secret", os.Getenv("APP_API_SECRET"), "App API secret")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output the result value")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")
	return shop, apiKey, apiSecret
}

// mintSessionToken builds a development session token shaped like the
// ones the platform issues to the extension.
func mintSessionToken(shop, apiKey, apiSecret string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"aud": apiKey,
		"dest": "https://" + shop,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(time.Minute).Unix(),
		"input_data": map[string]any{
			"shop": map[string]any{"domain": shop},
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(apiSecret))
}

// =============================================================================
// OFFER COMMAND
// =============================================================================

func runOffer(args []string) {
	fs := flag.NewFlagSet("offer", flag.ExitOnError)
	shop, apiKey, apiSecret := commonFlags(fs)
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	requireCredentials(fs, *shop, *apiKey, *apiSecret)

	resp := doAuthedRequest(*shop, *apiKey, *apiSecret, "/api/offer", map[string]any{
		"referenceId": "upsellctl-preview",
	})

	offer, _ := resp["offer"].(map[string]any)
	if offer == nil {
		fatal("Response carried no offer")
	}

	if quiet {
		out, _ := json.Marshal(offer)
		fmt.Println(string(out))
		return
	}

	printSuccess("Offer resolved")
	fmt.Printf("  Product:  %s%v - %v%s\n", colorBold, offer["productTitle"], offer["title"], colorReset)
	fmt.Printf("  Price:    %v → %s%v%s\n", offer["originalPrice"], colorGreen, offer["discountedPrice"], colorReset)
	if sizes, ok := offer["sizeOptions"].([]any); ok && len(sizes) > 0 {
		labels := make([]string, 0, len(sizes))
		for _, s := range sizes {
			if m, ok := s.(map[string]any); ok {
				labels = append(labels, fmt.Sprintf("%v", m["size"]))
			}
		}
		fmt.Printf("  Sizes:    %s\n", strings.Join(labels, ", "))
	}
}

// =============================================================================
// SIGN COMMAND
// =============================================================================

func runSign(args []string) {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	shop, apiKey, apiSecret := commonFlags(fs)
	variantID := fs.String("variant", "", "Variant global identifier (required)")
	referenceID := fs.String("ref", "", "Purchase reference ID (required)")
	quantity := fs.Int("qty", 1, "Quantity")
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	requireCredentials(fs, *shop, *apiKey, *apiSecret)
	if *variantID == "" || *referenceID == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp := doAuthedRequest(*shop, *apiKey, *apiSecret, "/api/sign-changeset", map[string]any{
		"referenceId": *referenceID,
		"quantity":    *quantity,
		"changes": []map[string]any{
			{"type": "add_variant", "variantID": *variantID, "quantity": *quantity},
		},
	})

	token, _ := resp["token"].(string)
	if token == "" {
		fatal("Response carried no token")
	}

	if quiet {
		fmt.Println(token)
		return
	}
	printSuccess("Changeset signed")
	fmt.Printf("  Token: %s%s%s\n", colorGray, token, colorReset)
}

// =============================================================================
// DECODE COMMAND
// =============================================================================

func runDecode(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	apiSecret := fs.String("secret", os.Getenv("APP_API_SECRET"), "App API secret (empty = decode without verifying)")
	token := fs.String("token", "", "Signed changeset token (required)")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	if *token == "" {
		fs.Usage()
		os.Exit(1)
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))

	if *apiSecret == "" {
		if _, _, err := parser.ParseUnverified(*token, claims); err != nil {
			fatal("Decoding token: %v", err)
		}
		printWarning("Signature NOT verified (no -secret given)")
	} else {
		_, err := parser.ParseWithClaims(*token, claims, func(*jwt.Token) (any, error) {
			return []byte(*apiSecret), nil
		})
		if err != nil {
			fatal("Verifying token: %v", err)
		}
		printSuccess("Signature verified")
	}

	pretty, _ := json.MarshalIndent(claims, "", "  ")
	fmt.Println(string(pretty))
}

// =============================================================================
// HEALTH COMMAND
// =============================================================================

func runHealth(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	fs.StringVar(&serverURL, "server", "http://localhost:8080", "Upsell server base URL")
	fs.BoolVar(&quiet, "q", false, "Quiet mode")
	fs.Parse(args)

	resp, err := client.Get(strings.TrimSuffix(serverURL, "/") + "/healthz")
	if err != nil {
		fatal("Health check failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fatal("Health check returned HTTP %d", resp.StatusCode)
	}
	printSuccess("Server healthy")
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

func requireCredentials(fs *flag.FlagSet, shop, apiKey, apiSecret string) {
	if shop == "" || apiKey == "" || apiSecret == "" {
		fs.Usage()
		os.Exit(1)
	}
}

func doAuthedRequest(shop, apiKey, apiSecret, path string, body any) map[string]any {
	sessionToken, err := mintSessionToken(shop, apiKey, apiSecret)
	if err != nil {
		fatal("Minting session token: %v", err)
	}

	reqJSON, err := json.Marshal(body)
	if err != nil {
		fatal("Marshaling request: %v", err)
	}

	req, err := http.NewRequest("POST", strings.TrimSuffix(serverURL, "/")+path, bytes.NewReader(reqJSON))
	if err != nil {
		fatal("Creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sessionToken)

	if !quiet {
		printRequest("POST", path, reqJSON)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)
	if err != nil {
		fatal("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		fatal("Reading response: %v", err)
	}

	if !quiet {
		printResponse(resp.StatusCode, respBody, duration)
	}
	if resp.StatusCode >= 400 {
		fatal("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var result map[string]any
	if err := json.Unmarshal(respBody, &result); err != nil {
		fatal("Parsing response: %v", err)
	}
	return result
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printRequest(method, path string, body []byte) {
	fmt.Printf("\n%s▶ REQUEST%s %s%s %s%s\n", colorYellow, colorReset, colorBold, method, path, colorReset)
	if body != nil {
		printJSON(body, "  ")
	}
}

func printResponse(status int, body []byte, duration time.Duration) {
	statusColor := colorGreen
	if status >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s◀ RESPONSE%s %s%d%s (%v)\n", colorCyan, colorReset, statusColor, status, colorReset, duration)
	printJSON(body, "  ")
}

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}

	output := pretty.String()
	if !verbose {
		lines := strings.Split(output, "\n")
		if len(lines) > 30 {
			lines = append(lines[:25], fmt.Sprintf("%s  %s(%d more lines, use -v for full output)%s", prefix, colorGray, len(lines)-25, colorReset))
			output = strings.Join(lines, "\n")
		}
	}
	fmt.Println(output)
}

func printSuccess(format string, args ...any) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printWarning(format string, args ...any) {
	fmt.Printf("%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
