package service

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/mansoorceksport/mobipent/internal/domain"
)

// MASVS control groups findings are filed under
const (
	CategoryStorage    = "MASVS-STORAGE"
	CategoryCrypto     = "MASVS-CRYPTO"
	CategoryAuth       = "MASVS-AUTH"
	CategoryNetwork    = "MASVS-NETWORK"
	CategoryPlatform   = "MASVS-PLATFORM"
	CategoryCode       = "MASVS-CODE"
	CategoryResilience = "MASVS-RESILIENCE"
	CategoryPrivacy    = "MASVS-PRIVACY"
)

var categories = []string{
	CategoryStorage, CategoryCrypto, CategoryAuth, CategoryNetwork,
	CategoryPlatform, CategoryCode, CategoryResilience, CategoryPrivacy,
}

// Severity weights added to the risk score
var severityScore = map[string]int{
	"HIGH":   30,
	"MEDIUM": 15,
	"LOW":    5,
}

var dangerousPermissions = []string{
	"READ_EXTERNAL_STORAGE", "WRITE_EXTERNAL_STORAGE",
	"READ_CONTACTS", "WRITE_CONTACTS", "ACCESS_FINE_LOCATION",
	"ACCESS_COARSE_LOCATION", "CAMERA", "RECORD_AUDIO",
	"READ_SMS", "SEND_SMS", "CALL_PHONE",
}

// Finding is one issue reported by the scanner
type Finding struct {
	Severity    string `json:"severity"`
	Issue       string `json:"issue"`
	Description string `json:"description,omitempty"`
}

// APKScan holds an opened package and the findings collected so far
type APKScan struct {
	fileName  string
	size      int64
	sha256    string
	entries   map[string]*zip.File
	manifest  []byte
	dex       [][]byte
	findings  map[string][]Finding
	riskScore int
}

// OpenAPK reads an uploaded package. Content that is not a zip archive fails,
// which callers report as an extraction failure.
func OpenAPK(fileName string, content []byte) (*APKScan, error) {
	sum := sha256.Sum256(content)
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to extract APK: %w", err)
	}

	scan := &APKScan{
		fileName: fileName,
		size:     int64(len(content)),
		sha256:   hex.EncodeToString(sum[:]),
		entries:  make(map[string]*zip.File, len(zr.File)),
		findings: make(map[string][]Finding, len(categories)),
	}
	for _, category := range categories {
		scan.findings[category] = []Finding{}
	}

	for _, f := range zr.File {
		scan.entries[f.Name] = f
		switch {
		case f.Name == "AndroidManifest.xml":
			if scan.manifest, err = readEntry(f); err != nil {
				return nil, err
			}
		case path.Dir(f.Name) == "." && strings.HasPrefix(f.Name, "classes") && strings.HasSuffix(f.Name, ".dex"):
			data, err := readEntry(f)
			if err != nil {
				return nil, err
			}
			scan.dex = append(scan.dex, data)
		}
	}
	return scan, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *APKScan) add(category, severity, issue, description string) {
	s.findings[category] = append(s.findings[category], Finding{
		Severity:    severity,
		Issue:       issue,
		Description: description,
	})
	s.riskScore += severityScore[severity]
}

// containsString looks for text in a binary resource as UTF-8 and as UTF-16LE,
// the encoding of compiled manifest string pools
func containsString(data []byte, text string) bool {
	if bytes.Contains(data, []byte(text)) {
		return true
	}
	units := utf16.Encode([]rune(text))
	wide := make([]byte, 0, len(units)*2)
	for _, u := range units {
		wide = append(wide, byte(u), byte(u>>8))
	}
	return bytes.Contains(data, wide)
}

func (s *APKScan) dexContains(text string) bool {
	for _, d := range s.dex {
		if containsString(d, text) {
			return true
		}
	}
	return false
}

// AnalyzeManifest files MASVS-PLATFORM findings
func (s *APKScan) AnalyzeManifest() {
	if s.manifest == nil {
		s.add(CategoryPlatform, "HIGH", "AndroidManifest.xml not found", "")
		return
	}
	if containsString(s.manifest, "debuggable") {
		s.add(CategoryPlatform, "HIGH", "Debug mode enabled", "Application declares android:debuggable")
	}
	if !containsString(s.manifest, "allowBackup") {
		s.add(CategoryStorage, "MEDIUM", "Backup allowed", "android:allowBackup is not set to false")
	}
	if containsString(s.manifest, "usesCleartextTraffic") {
		s.add(CategoryNetwork, "HIGH", "Clear text traffic allowed", "Application declares android:usesCleartextTraffic")
	}

	var found []string
	for _, perm := range dangerousPermissions {
		if containsString(s.manifest, "android.permission."+perm) {
			found = append(found, perm)
		}
	}
	if len(found) > 0 {
		s.add(CategoryPlatform, "MEDIUM", "Dangerous permissions", "Permissions: "+strings.Join(found, ", "))
	}
}

// AnalyzeStorage files MASVS-STORAGE findings for bundled data files
func (s *APKScan) AnalyzeStorage() {
	for _, name := range s.sortedEntries() {
		switch strings.ToLower(path.Ext(name)) {
		case ".db", ".sqlite", ".sqlite3", ".realm":
			s.add(CategoryStorage, "MEDIUM", "Bundled database file", name)
		}
	}
	if s.dexContains("MODE_WORLD_READABLE") {
		s.add(CategoryStorage, "HIGH", "World readable file mode", "MODE_WORLD_READABLE referenced in code")
	}
}

// AnalyzeCrypto files MASVS-CRYPTO findings
func (s *APKScan) AnalyzeCrypto() {
	for _, name := range s.sortedEntries() {
		switch strings.ToLower(path.Ext(name)) {
		case ".pem", ".key", ".p12", ".pfx", ".jks", ".keystore", ".bks":
			s.add(CategoryCrypto, "HIGH", "Hardcoded key material", name)
		}
	}
	for _, weak := range []string{"DES/ECB", "AES/ECB", "MD5"} {
		if s.dexContains(weak) {
			s.add(CategoryCrypto, "MEDIUM", "Weak cryptography", weak+" referenced in code")
		}
	}
}

// AnalyzeNetwork files MASVS-NETWORK findings
func (s *APKScan) AnalyzeNetwork() {
	if _, ok := s.entries["res/xml/network_security_config.xml"]; !ok {
		s.add(CategoryNetwork, "LOW", "No network security configuration", "res/xml/network_security_config.xml not found")
	}
	if s.dexContains("http://") {
		s.add(CategoryNetwork, "MEDIUM", "Clear text URL in code", "http:// literal found in dex")
	}
}

// AnalyzeCode files MASVS-CODE findings
func (s *APKScan) AnalyzeCode() {
	if len(s.dex) == 0 {
		s.add(CategoryCode, "HIGH", "No dex code found", "classes.dex not found")
		return
	}
	if !s.dexContains("/a/a;") {
		s.add(CategoryCode, "MEDIUM", "Code does not appear obfuscated", "Class names are not minified")
	}
	for _, secret := range []string{"API_KEY", "SECRET_KEY", "password="} {
		if s.dexContains(secret) {
			s.add(CategoryCode, "HIGH", "Hardcoded secret", secret+" found in dex")
		}
	}
}

// AnalyzeResilience files MASVS-RESILIENCE findings
func (s *APKScan) AnalyzeResilience() {
	native := false
	for name := range s.entries {
		if strings.HasPrefix(name, "lib/") && strings.HasSuffix(name, ".so") {
			native = true
			break
		}
	}
	if !native {
		s.add(CategoryResilience, "LOW", "No native libraries", "No runtime protection libraries bundled")
	}
	if !s.dexContains("isRooted") && !s.dexContains("RootBeer") && !s.dexContains("/system/xbin/su") {
		s.add(CategoryResilience, "MEDIUM", "No root detection", "No known root detection checks found")
	}
}

// AnalyzePrivacy files MASVS-PRIVACY findings
func (s *APKScan) AnalyzePrivacy() {
	for _, api := range []string{"getDeviceId", "getSubscriberId", "getLastKnownLocation"} {
		if s.dexContains(api) {
			s.add(CategoryPrivacy, "MEDIUM", "Sensitive identifier access", api+" referenced in code")
		}
	}
}

func (s *APKScan) sortedEntries() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunTool runs the checks behind one tool and returns the tool report's result object
func (s *APKScan) RunTool(tool string) map[string]any {
	var summary any
	switch tool {
	case domain.ToolStaticAnalysis:
		s.AnalyzeManifest()
		s.AnalyzeStorage()
		s.AnalyzeCode()
		summary = s.findings
	case domain.ToolManifestCheck:
		s.AnalyzeManifest()
		summary = s.findings[CategoryPlatform]
	case domain.ToolReverseEngineering, domain.ToolObfuscationCheck:
		s.AnalyzeCode()
		summary = s.findings[CategoryCode]
	case domain.ToolRootDetection:
		s.AnalyzeResilience()
		summary = s.findings[CategoryResilience]
	case domain.ToolNetworkInspection:
		s.AnalyzeNetwork()
		summary = s.findings[CategoryNetwork]
	case domain.ToolDynamicAnalysis:
		s.AnalyzeNetwork()
		s.AnalyzeResilience()
		s.AnalyzePrivacy()
		summary = s.findings
	case "Crypto Analysis":
		s.AnalyzeCrypto()
		summary = s.findings[CategoryCrypto]
	default:
		summary = []string{fmt.Sprintf("Unknown tool: %s", tool)}
	}

	return map[string]any{
		"summary": summary,
		"sha256":  s.sha256,
		"size":    s.size,
	}
}

// Report runs every check and builds the comprehensive report
func (s *APKScan) Report() map[string]any {
	s.AnalyzeManifest()
	s.AnalyzeStorage()
	s.AnalyzeCrypto()
	s.AnalyzeNetwork()
	s.AnalyzeCode()
	s.AnalyzeResilience()
	s.AnalyzePrivacy()

	total, high, medium := 0, 0, 0
	summary := make([]string, 0, len(categories))
	for _, category := range categories {
		findings := s.findings[category]
		total += len(findings)
		for _, f := range findings {
			switch f.Severity {
			case "HIGH":
				high++
			case "MEDIUM":
				medium++
			}
		}
		if len(findings) > 0 {
			summary = append(summary, fmt.Sprintf("%s: %d issues found", category, len(findings)))
		} else {
			summary = append(summary, fmt.Sprintf("%s: No issues found", category))
		}
	}

	return map[string]any{
		"scan_info": map[string]any{
			"timestamp":       time.Now().UTC().Format(time.RFC3339),
			"apk_file":        s.fileName,
			"sha256":          s.sha256,
			"scanner_version": "1.0.0",
			"owasp_version":   "MASVS 2.1.0",
		},
		"risk_assessment": map[string]any{
			"risk_level":      RiskLevel(s.riskScore),
			"risk_score":      s.riskScore,
			"total_findings":  total,
			"high_severity":   high,
			"medium_severity": medium,
		},
		"summary":           summary,
		"detailed_findings": s.findings,
		"recommendations":   s.recommendations(),
	}
}

// RiskLevel buckets a risk score
func RiskLevel(score int) string {
	switch {
	case score >= 100:
		return "CRITICAL"
	case score >= 70:
		return "HIGH"
	case score >= 40:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func (s *APKScan) recommendations() []string {
	issues := map[string]bool{}
	for _, findings := range s.findings {
		for _, f := range findings {
			issues[f.Issue] = true
		}
	}

	var out []string
	if issues["Debug mode enabled"] {
		out = append(out, "Disable debug mode in production builds")
	}
	if issues["Backup allowed"] {
		out = append(out, `Set android:allowBackup="false" in AndroidManifest.xml`)
	}
	if issues["Clear text traffic allowed"] || issues["Clear text URL in code"] {
		out = append(out, "Use TLS everywhere and disable clear text traffic")
	}
	if issues["Hardcoded secret"] || issues["Hardcoded key material"] {
		out = append(out, "Remove hardcoded secrets and use secure key management")
	}
	if issues["Code does not appear obfuscated"] {
		out = append(out, "Enable R8/ProGuard obfuscation and minification")
	}
	if issues["No root detection"] {
		out = append(out, "Add root detection and anti-tampering checks")
	}
	if out == nil {
		out = []string{}
	}
	return out
}
