package domain

// Tool names offered by the Tools screen. The backend accepts any string;
// this list only drives the UI and CLI help.
const (
	ToolStaticAnalysis     = "Static Analysis"
	ToolDynamicAnalysis    = "Dynamic Analysis"
	ToolReverseEngineering = "Reverse Engineering"
	ToolManifestCheck      = "Manifest Check"
	ToolObfuscationCheck   = "Code Obfuscation Check"
	ToolRootDetection      = "Root Detection Test"
	ToolNetworkInspection  = "Network Traffic Inspection"
	ToolWholeTest          = "Whole Test"
)

// Tools is the catalog in display order
var Tools = []string{
	ToolStaticAnalysis,
	ToolDynamicAnalysis,
	ToolReverseEngineering,
	ToolManifestCheck,
	ToolObfuscationCheck,
	ToolRootDetection,
	ToolNetworkInspection,
}
