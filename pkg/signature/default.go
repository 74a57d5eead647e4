package signature

// Default returns the built-in illustrative catalog.
// It is an extensible starting point, not a market-share database.
func Default() []Entry {
	entries := make([]Entry, 0, len(defaultDevices)+len(defaultBrowsers)+len(defaultOS))
	entries = append(entries, defaultDevices...)
	entries = append(entries, defaultBrowsers...)
	entries = append(entries, defaultOS...)
	return entries
}

// NewDefault builds a catalog from Default. The built-in entries are always valid.
func NewDefault() *Catalog {
	c, err := New(Default()...)
	if err != nil {
		panic(err)
	}
	return c
}

var mobileVendorsOnly = Associations{
	CategoryOS: {"iOS", "macOS"},
}

var defaultDevices = []Entry{
	{
		Name:           "Bot",
		Category:       CategoryDevice,
		Patterns:       Substrings("bot", "crawler", "spider", "slurp"),
		BaseConfidence: 0.95,
		DeviceType:     "bot",
		Models:         []string{"Googlebot", "Bingbot", "Slurp", "DuckDuckBot"},
	},
	{
		Name:           "Apple",
		Category:       CategoryDevice,
		Patterns:       Substrings("iphone", "ipad", "ipod", "macintosh"),
		BaseConfidence: 0.9,
		DeviceType:     "mobile",
		Models:         []string{"iPhone", "iPad", "Mac", "iPod"},
		Common:         Associations{CategoryOS: {"iOS", "macOS"}, CategoryBrowser: {"Safari"}},
		Impossible:     Associations{CategoryOS: {"Android", "Windows", "Chrome OS"}, CategoryBrowser: {"Samsung Internet"}},
	},
	{
		Name:           "Samsung",
		Category:       CategoryDevice,
		Patterns:       Substrings("samsung", "sm-", "gt-", "galaxy"),
		BaseConfidence: 0.85,
		DeviceType:     "mobile",
		Models:         []string{"Galaxy S", "Galaxy Note", "Galaxy Tab", "Galaxy A"},
		Common:         Associations{CategoryOS: {"Android"}, CategoryBrowser: {"Samsung Internet", "Chrome"}},
		Impossible:     mobileVendorsOnly,
	},
	{
		Name:           "Google",
		Category:       CategoryDevice,
		Patterns:       Substrings("pixel", "nexus", "chromebook"),
		BaseConfidence: 0.8,
		DeviceType:     "mobile",
		Models:         []string{"Pixel", "Nexus", "Chromebook"},
		Common:         Associations{CategoryOS: {"Android", "Chrome OS"}, CategoryBrowser: {"Chrome"}},
		Impossible:     mobileVendorsOnly,
	},
	{
		Name:           "Huawei",
		Category:       CategoryDevice,
		Patterns:       Substrings("huawei", "honor"),
		BaseConfidence: 0.8,
		DeviceType:     "mobile",
		Models:         []string{"P series", "Mate series", "Honor"},
		Common:         Associations{CategoryOS: {"Android"}},
		Impossible:     mobileVendorsOnly,
	},
	{
		Name:           "Xiaomi",
		Category:       CategoryDevice,
		Patterns:       Substrings("xiaomi", "redmi", "poco"),
		BaseConfidence: 0.8,
		DeviceType:     "mobile",
		Models:         []string{"Mi series", "Redmi", "Poco"},
		Common:         Associations{CategoryOS: {"Android"}},
		Impossible:     mobileVendorsOnly,
	},
	{
		Name:           "Tablet",
		Category:       CategoryDevice,
		Patterns:       Substrings("tablet"),
		BaseConfidence: 0.55,
		DeviceType:     "tablet",
		Models:         []string{"Android Tablet", "Windows Tablet"},
	},
	{
		Name:           "Desktop",
		Category:       CategoryDevice,
		Patterns:       Substrings("windows nt", "x11", "; cros "),
		BaseConfidence: 0.6,
		DeviceType:     "desktop",
		Models:         []string{"Windows PC", "Linux PC", "Chromebook"},
		Common:         Associations{CategoryOS: {"Windows", "Linux", "Chrome OS"}},
		Unusual:        Associations{CategoryBrowser: {"Samsung Internet", "UC Browser"}},
		Impossible:     Associations{CategoryOS: {"iOS", "Android"}},
	},
}

var defaultBrowsers = []Entry{
	{
		Name:           "Edge",
		Category:       CategoryBrowser,
		Patterns:       Substrings("edg/", "edge/", "edga/", "edgios/"),
		BaseConfidence: 0.95,
		Vendor:         "Microsoft",
		Engine:         "Blink",
	},
	{
		Name:           "Opera",
		Category:       CategoryBrowser,
		Patterns:       Substrings("opr/", "opera"),
		BaseConfidence: 0.95,
		Vendor:         "Opera",
		Engine:         "Blink",
	},
	{
		Name:           "Samsung Internet",
		Category:       CategoryBrowser,
		Patterns:       Substrings("samsungbrowser"),
		BaseConfidence: 0.95,
		Vendor:         "Samsung",
		Engine:         "Blink",
		Common:         Associations{CategoryOS: {"Android"}, CategoryDevice: {"Samsung"}},
		Impossible:     Associations{CategoryOS: {"iOS", "macOS", "Windows"}},
	},
	{
		Name:           "UC Browser",
		Category:       CategoryBrowser,
		Patterns:       Substrings("ucbrowser"),
		BaseConfidence: 0.95,
		Vendor:         "UCWeb",
		Engine:         "WebKit",
	},
	{
		Name:           "Brave",
		Category:       CategoryBrowser,
		Patterns:       Substrings("brave"),
		BaseConfidence: 0.95,
		Vendor:         "Brave Software",
		Engine:         "Blink",
	},
	{
		Name:           "Firefox",
		Category:       CategoryBrowser,
		Patterns:       Substrings("firefox", "fxios"),
		BaseConfidence: 0.9,
		Vendor:         "Mozilla",
		Engine:         "Gecko",
	},
	{
		Name:           "Chrome",
		Category:       CategoryBrowser,
		Patterns:       Substrings("chrome", "crios"),
		BaseConfidence: 0.85,
		Vendor:         "Google",
		Engine:         "Blink",
	},
	{
		Name:           "Safari",
		Category:       CategoryBrowser,
		Patterns:       Substrings("safari"),
		BaseConfidence: 0.7,
		Vendor:         "Apple",
		Engine:         "WebKit",
		Common:         Associations{CategoryOS: {"iOS", "macOS"}, CategoryDevice: {"Apple"}},
		Impossible:     Associations{CategoryOS: {"Windows", "Linux", "Chrome OS"}},
	},
}

var defaultOS = []Entry{
	{
		Name:           "Android",
		Category:       CategoryOS,
		Patterns:       Substrings("android"),
		BaseConfidence: 0.95,
		Impossible:     Associations{CategoryBrowser: {"Safari"}},
		Versions: []Version{
			{Name: "16", Token: "android 16"},
			{Name: "15", Token: "android 15"},
			{Name: "14", Token: "android 14"},
			{Name: "13", Token: "android 13"},
			{Name: "12", Token: "android 12"},
			{Name: "11", Token: "android 11"},
			{Name: "10", Token: "android 10"},
			{Name: "9", Token: "android 9"},
			{Name: "8", Token: "android 8"},
		},
	},
	{
		Name:           "iOS",
		Category:       CategoryOS,
		Patterns:       Substrings("iphone", "ipad", "ipod"),
		BaseConfidence: 0.9,
		Common:         Associations{CategoryDevice: {"Apple"}, CategoryBrowser: {"Safari"}},
		Versions: []Version{
			{Name: "26", Token: "os 26_"},
			{Name: "18", Token: "os 18_"},
			{Name: "17", Token: "os 17_"},
			{Name: "16", Token: "os 16_"},
			{Name: "15", Token: "os 15_"},
			{Name: "14", Token: "os 14_"},
			{Name: "13", Token: "os 13_"},
			{Name: "12", Token: "os 12_"},
		},
	},
	{
		Name:           "Windows",
		Category:       CategoryOS,
		Patterns:       Substrings("windows"),
		BaseConfidence: 0.9,
		Versions: []Version{
			{Name: "10/11", Token: "windows nt 10.0"},
			{Name: "8.1", Token: "windows nt 6.3"},
			{Name: "8", Token: "windows nt 6.2"},
			{Name: "7", Token: "windows nt 6.1"},
			{Name: "Vista", Token: "windows nt 6.0"},
			{Name: "XP", Token: "windows nt 5.1"},
		},
	},
	{
		Name:           "Chrome OS",
		Category:       CategoryOS,
		Patterns:       Substrings("; cros "),
		BaseConfidence: 0.9,
	},
	{
		Name:           "macOS",
		Category:       CategoryOS,
		Patterns:       Substrings("mac os x", "macos", "macintosh"),
		BaseConfidence: 0.75,
		Versions: []Version{
			{Name: "Ventura", Token: "mac os x 13"},
			{Name: "Monterey", Token: "mac os x 12"},
			{Name: "Big Sur", Token: "mac os x 11"},
			{Name: "Catalina", Token: "mac os x 10_15"},
			{Name: "Catalina", Token: "mac os x 10.15"},
			{Name: "Mojave", Token: "mac os x 10_14"},
			{Name: "Mojave", Token: "mac os x 10.14"},
			{Name: "High Sierra", Token: "mac os x 10_13"},
			{Name: "High Sierra", Token: "mac os x 10.13"},
		},
	},
	{
		Name:           "Linux",
		Category:       CategoryOS,
		Patterns:       Substrings("linux", "ubuntu", "fedora", "debian", "x11"),
		BaseConfidence: 0.6,
	},
}
