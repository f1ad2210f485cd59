// Package deploy simulates compiling and registering a WASM applet
// contract. The resulting manifest is display data only; no real chain
// is involved.
package deploy

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/sha3" // Keccak-256 for contract hashes
)

// Network is a deployment target.
type Network struct {
	Endpoint string `json:"endpoint"` // Chain websocket endpoint
	ChainID  string `json:"chainId"`  // Chain identifier
}

// Networks lists the known deployment targets.
var Networks = map[string]Network{
	"testnet": {Endpoint: "wss://testnet.weilchain.io", ChainID: "weil-testnet-1"},
	"mainnet": {Endpoint: "wss://mainnet.weilchain.io", ChainID: "weil-mainnet-1"},
	"local":   {Endpoint: "ws://localhost:9944", ChainID: "weil-local-dev"},
}

// Record is one deployed applet entry in the manifest.
type Record struct {
	ContractHash string    `json:"contractHash"` // Simulated contract hash
	DeployedAt   time.Time `json:"deployedAt"`   // Deployment time
	WasmPath     string    `json:"wasmPath"`     // Path to the WASM artifact
}

// Manifest maps network name to applet name to deployment record.
type Manifest map[string]map[string]Record

// Options configure one deployment run.
type Options struct {
	AppletName   string           // Applet directory name
	Network      string           // Target network key
	AppletsDir   string           // Root directory holding applet sources
	ManifestPath string           // Manifest file to update
	Now          func() time.Time // Clock override for tests
}

// Run performs a simulated deployment: it locates (or fabricates) the
// WASM artifact, derives a contract hash from its bytes, and records
// the deployment in the manifest.
func Run(opts Options) (*Record, error) {
	if _, ok := Networks[opts.Network]; !ok {
		return nil, fmt.Errorf("invalid network %q", opts.Network)
	}
	if opts.AppletName == "" {
		return nil, fmt.Errorf("applet name is required")
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	appletDir := filepath.Join(opts.AppletsDir, opts.AppletName)
	if _, err := os.Stat(appletDir); err != nil {
		return nil, fmt.Errorf("applet directory not found: %s", appletDir)
	}

	// Locate the compiled artifact; fabricate a placeholder when the
	// toolchain has not produced one
	wasmName := strings.ReplaceAll(opts.AppletName, "-", "_") + ".wasm"
	wasmPath := filepath.Join(appletDir, "target", "wasm32-unknown-unknown", "release", wasmName)
	if _, err := os.Stat(wasmPath); err != nil {
		if err := os.MkdirAll(filepath.Dir(wasmPath), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(wasmPath, make([]byte, 1024), 0o644); err != nil {
			return nil, err
		}
	}
	wasm, err := os.ReadFile(wasmPath)
	if err != nil {
		return nil, err
	}

	deployedAt := now().UTC()
	record := Record{
		ContractHash: contractHash(opts.AppletName, wasm, deployedAt),
		DeployedAt:   deployedAt,
		WasmPath:     wasmPath,
	}

	if err := updateManifest(opts.ManifestPath, opts.Network, opts.AppletName, record); err != nil {
		return nil, err
	}
	return &record, nil
}

// contractHash derives a 20-byte address-shaped hash from the applet
// name, artifact bytes and deployment time.
func contractHash(name string, wasm []byte, at time.Time) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	h.Write(wasm)
	h.Write([]byte(at.Format(time.RFC3339Nano)))
	return "0x" + hex.EncodeToString(h.Sum(nil))[:40]
}

// updateManifest merges the record into the manifest file
func updateManifest(path, network, applet string, record Record) error {
	manifest := Manifest{}
	if raw, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(raw, &manifest); err != nil {
			return fmt.Errorf("manifest is corrupt: %w", err)
		}
	}
	if manifest[network] == nil {
		manifest[network] = make(map[string]Record)
	}
	manifest[network][applet] = record

	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, raw, 0o644)
}
