package signal

import "testing"

func TestNameToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/pics/IMG_001_copy.jpg", "img_001"},
		{"/pics/test1.jpg", "test"},
		{"/pics/test1_copy.jpg", "test1"},
		{"/pics/photo (1).jpg", "photo"},
		{"/pics/holiday-backup.png", "holiday"},
		{"/pics/IMG_1234.JPG", "img"},
		{"/pics/sunset.png", "sunset"},
		// Stripping would leave a token that is too short, so the full
		// stem is kept.
		{"/pics/a_2.png", "a_2"},
		{"/pics/12.jpg", "12"},
		{"/pics/backup.jpg", "backup"},
	}

	for _, tt := range tests {
		if got := NameToken(tt.path); got != tt.want {
			t.Errorf("NameToken(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestNamesSimilar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{"sunset", "sunset", true},
		{"test", "test1", true},
		{"holiday", "holiday edited", true},
		{"sunset", "sunrise", false},
		{"", "sunset", false},
		{"sunset", "", false},
		// Short tokens match only on exact equality.
		{"ab", "ab", true},
		{"ab", "abc", false},
	}

	for _, tt := range tests {
		if got := NamesSimilar(tt.a, tt.b); got != tt.want {
			t.Errorf("NamesSimilar(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRecognized(t *testing.T) {
	t.Parallel()

	recognized := []string{"a.jpg", "b.JPEG", "c.png", "d.bmp", "e.tiff", "f.tif", "g.webp", "h.gif", "i.ico"}
	for _, p := range recognized {
		if !Recognized(p) {
			t.Errorf("Recognized(%q) = false, want true", p)
		}
	}

	unrecognized := []string{"doc.pdf", "notes.txt", "archive.zip", "noext", "movie.mp4"}
	for _, p := range unrecognized {
		if Recognized(p) {
			t.Errorf("Recognized(%q) = true, want false", p)
		}
	}
}

func TestCanDecode(t *testing.T) {
	t.Parallel()

	if !CanDecode("a.png") || !CanDecode("b.jpg") || !CanDecode("c.webp") {
		t.Error("expected common formats to be decodable")
	}
	// Icons are scanned but not perceptually hashed.
	if CanDecode("favicon.ico") {
		t.Error("CanDecode(.ico) = true, want false")
	}
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	avail := Capabilities()
	if !avail.Metadata || !avail.Visual {
		t.Errorf("Capabilities() = %+v, want both available", avail)
	}
}
