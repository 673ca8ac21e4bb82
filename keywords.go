package anubad

// Keyword pairs a Bangla keyword with the canonical token it is rewritten to.
// An empty Canonical means the keyword is elided.
type Keyword struct {
	Localized string
	Canonical string
}

// keywordTable is applied in slice order. Longer keywords that share a prefix
// with shorter ones (নাহলে / না) must come first.
var keywordTable = normalizeKeywords([]Keyword{
	{Localized: "ধরি", Canonical: ""},
	{Localized: "দেখাও", Canonical: "print"},
	{Localized: "যদি", Canonical: "if"},
	{Localized: "\u09b9\u09af\u09bc", Canonical: ""}, // হয়
	{Localized: "নাহলে", Canonical: "else"},
	{Localized: "যতক্ষণ", Canonical: "while"},
	{Localized: "এবং", Canonical: "and"},
	{Localized: "বা", Canonical: "or"},
	{Localized: "না", Canonical: "not"},
	{Localized: "সত্য", Canonical: "True"},
	{Localized: "মিথ্যা", Canonical: "False"},
})

var (
	declareKeyword  = keywordTable[0].Localized
	printKeyword    = keywordTable[1].Localized
	ifKeyword       = keywordTable[2].Localized
	conditionSuffix = keywordTable[3].Localized
)

func normalizeKeywords(table []Keyword) []Keyword {
	for i := range table {
		table[i].Localized = NormalizeSource(table[i].Localized)
	}
	return table
}

// Keywords returns the keyword table in application order.
func Keywords() []Keyword {
	out := make([]Keyword, len(keywordTable))
	copy(out, keywordTable)
	return out
}

// KeywordHelp is the user-facing reference for the keyword vocabulary.
const KeywordHelp = `বাংলা কীওয়ার্ড সাহায়িকা:

ধরি ক = ৫        # ভেরিয়েবল ডিক্লেয়ারেশন
দেখাও(ক)         # ভেরিয়েবল প্রিন্ট করা
দেখাও("হ্যালো")  # টেক্সট প্রিন্ট করা
যদি ক > ১০ হয়:   # শর্তসাপেক্ষ
    দেখাও("বড়")
নাহলে:
    দেখাও("ছোট")

যতক্ষণ ক < ১০:   # লুপ
    দেখাও(ক)
    ক = ক + ১
`

// AboutText is shown by the desktop editor's about box.
const AboutText = `বাংলা মিনি কম্পাইলার
ভার্সন 2.2

এটি একটি বাংলা সিনট্যাক্স ভিত্তিক প্রোগ্রামিং পরিবেশ।
Go ভাষায় তৈরি, fyne GUI ব্যবহার করে।
`
