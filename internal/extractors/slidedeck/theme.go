package slidedeck

import (
	"encoding/xml"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/logger"
)

var themePath = regexp.MustCompile(`^ppt/theme/theme(\d+)\.xml$`)

type themeXML struct {
	Colors colorScheme `xml:"themeElements>clrScheme"`
	Fonts  fontScheme  `xml:"themeElements>fontScheme"`
}

type colorScheme struct {
	Dk1      colorSlot `xml:"dk1"`
	Lt1      colorSlot `xml:"lt1"`
	Dk2      colorSlot `xml:"dk2"`
	Lt2      colorSlot `xml:"lt2"`
	Accent1  colorSlot `xml:"accent1"`
	Accent2  colorSlot `xml:"accent2"`
	Accent3  colorSlot `xml:"accent3"`
	Accent4  colorSlot `xml:"accent4"`
	Accent5  colorSlot `xml:"accent5"`
	Accent6  colorSlot `xml:"accent6"`
	Hlink    colorSlot `xml:"hlink"`
	FolHlink colorSlot `xml:"folHlink"`
}

type colorSlot struct {
	SRGB *struct {
		Val string `xml:"val,attr"`
	} `xml:"srgbClr"`
	Sys *struct {
		LastClr string `xml:"lastClr,attr"`
	} `xml:"sysClr"`
}

// hex returns the slot colour as #RRGGBB, or "" when unset.
func (c colorSlot) hex() string {
	switch {
	case c.SRGB != nil && c.SRGB.Val != "":
		return "#" + strings.ToUpper(c.SRGB.Val)
	case c.Sys != nil && c.Sys.LastClr != "":
		return "#" + strings.ToUpper(c.Sys.LastClr)
	default:
		return ""
	}
}

type fontScheme struct {
	Major fontRef `xml:"majorFont"`
	Minor fontRef `xml:"minorFont"`
}

type fontRef struct {
	Latin struct {
		Typeface string `xml:"typeface,attr"`
	} `xml:"latin"`
}

// theme reads ppt/theme/theme1.xml, or the lowest-numbered theme part.
func (p *pkg) theme() domain.DeckTheme {
	name := "ppt/theme/theme1.xml"
	if !p.has(name) {
		var nums []int
		for file := range p.files {
			if m := themePath.FindStringSubmatch(file); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					nums = append(nums, n)
				}
			}
		}
		if len(nums) == 0 {
			return domain.DeckTheme{}
		}
		sort.Ints(nums)
		name = "ppt/theme/theme" + strconv.Itoa(nums[0]) + ".xml"
	}

	data, err := p.read(name)
	if err != nil {
		return domain.DeckTheme{}
	}
	return parseTheme(data)
}

func parseTheme(data []byte) domain.DeckTheme {
	var t themeXML
	if err := xml.Unmarshal(data, &t); err != nil {
		logger.Debug("theme: %v", err)
		return domain.DeckTheme{}
	}

	c := t.Colors
	theme := domain.DeckTheme{
		Background: c.Lt1.hex(),
		Text:       c.Dk1.hex(),
		MajorFont:  t.Fonts.Major.Latin.Typeface,
		MinorFont:  t.Fonts.Minor.Latin.Typeface,
	}
	for _, slot := range []colorSlot{c.Accent1, c.Accent2, c.Accent3, c.Accent4, c.Accent5, c.Accent6} {
		if hex := slot.hex(); hex != "" {
			theme.Accents = append(theme.Accents, hex)
		}
	}
	return theme
}
