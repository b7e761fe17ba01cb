package layout

import "vmcp/internal/catalog"

const (
	// BitsPerTag is the width of one slot description.
	BitsPerTag = 8
	// TagsPerWord is the number of slot descriptions in one 32-bit word.
	TagsPerWord = 4

	tagMask = 1<<BitsPerTag - 1
)

// TagWords returns the number of words needed for count tags.
func TagWords(count int) int {
	return (count + TagsPerWord - 1) / TagsPerWord
}

// PackTags packs one tag per slot, low bits first within each word.
func PackTags(tags []catalog.TypeTag) []uint32 {
	words := make([]uint32, TagWords(len(tags)))
	for i, tag := range tags {
		words[i/TagsPerWord] |= uint32(tag) << (uint(i%TagsPerWord) * BitsPerTag)
	}
	return words
}

// UnpackTags reverses PackTags for the first count slots.
func UnpackTags(words []uint32, count int) []catalog.TypeTag {
	tags := make([]catalog.TypeTag, count)
	for i := range tags {
		tags[i] = catalog.TypeTag(words[i/TagsPerWord] >> (uint(i%TagsPerWord) * BitsPerTag) & tagMask)
	}
	return tags
}

// UnsplitWords rewrites a packed split table into the coarse table, tag by
// tag, without touching the layout.
func UnsplitWords(words []uint32) []uint32 {
	out := make([]uint32, len(words))
	for i, word := range words {
		for j := 0; j < TagsPerWord; j++ {
			shift := uint(j) * BitsPerTag
			tag := catalog.TypeTag(word >> shift & tagMask)
			out[i] |= uint32(tag.Unsplit()) << shift
		}
	}
	return out
}
