package bot

// =============================================================================
// General messages
// =============================================================================

const (
	MsgUnexpectedErr = `Unexpected error: %s`
	MsgVersionInfo   = "Version: %s\nCommit: %s\nBuilt: %s"
	MsgStart         = `
		Send me a photo of a product label and I will read it and list the
		health pros and cons and the environmental impact of the product.

		/scan opens the scanner, /close closes it.`
)

// =============================================================================
// Scanner messages
// =============================================================================

const (
	MsgScanPrompt          = "Scanner open. Send a photo of the product label."
	MsgScannerClosed       = "Scanner closed. Send /scan or a photo to start again."
	MsgScannerNotOpen      = "The scanner is not open. Send /scan to open it."
	MsgRetakeFirst         = "A photo is already captured. Press *Retake* first."
	MsgRetakePrompt        = "Ok, send a new photo."
	MsgPhotoCaptured       = "Photo captured. Press *Analyze* to read the label."
	MsgAnalyzing           = "Analyzing the label..."
	MsgAnalysisInProgress  = "Analysis already in progress, please wait."
	MsgNoImage             = "No photo captured yet. Send a photo first."
	MsgCameraFailed        = "Could not capture the photo: %s"
	MsgPhotoDownloadFailed = "Could not download the photo. Try sending it again."
	MsgNoResults           = "No analysis to show. Press *Analyze* first."
)

// =============================================================================
// Result rendering
// =============================================================================

const (
	MsgResultProduct      = "*Product:* %s"
	MsgResultDetectedText = "*Detected text:*\n%s"
	MsgResultWarning      = "⚠️ %s"
)

// =============================================================================
// Buttons
// =============================================================================

const (
	BtnAnalyze   = "🔍 Analyze"
	BtnRetake    = "🔁 Retake"
	BtnClose     = "✖️ Close"
	BtnActiveTab = "• %s •"
)
