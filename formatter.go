package anubad

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// CompletionBanner closes every successful run's display text
const CompletionBanner = "============বাংলা কম্পাইলার দিয়ে রান সম্পন্ন হয়েছে============="

// Display messages
const (
	MessageEmptyInput   = "কোড ফাঁকা, কিছু লিখুন!"
	MessageSyntaxError  = "সিনট্যাক্স ত্রুটি:"
	MessageRuntimeError = "কোড এক্সিকিউশন ত্রুটি:"
	MessageLine         = "লাইন"
	MessageTimeout      = "কোড নির্বাহ খুব দীর্ঘ সময় নিচ্ছে\nসম্ভবত ইনফিনিটি লুপ"
)

// FormatSuccess renders captured output for display
func FormatSuccess(captured string) string {
	return strings.TrimRightFunc(ToLocalizedDigits(captured), unicode.IsSpace) + "\n\n" + CompletionBanner
}

// FormatFailure renders a pipeline error for display
func FormatFailure(err error) string {
	var (
		compileErr *CompileError
		runtimeErr *RuntimeError
		timeoutErr *TimeoutError
	)
	switch {
	case errors.Is(err, ErrEmptyInput):
		return MessageEmptyInput
	case errors.As(err, &compileErr):
		text := MessageSyntaxError + "\n" + compileErr.Message + "\n" + MessageLine + " " + strconv.Itoa(compileErr.Line())
		if snippet := compileErr.Snippet(); snippet != "" {
			text += "\n" + snippet
		}
		return ToLocalizedDigits(text)
	case errors.As(err, &timeoutErr):
		return MessageTimeout
	case errors.As(err, &runtimeErr):
		return ToLocalizedDigits(MessageRuntimeError + "\n" + runtimeErr.Message)
	}
	return ToLocalizedDigits(MessageRuntimeError + "\n" + err.Error())
}

// Format renders any Result for display
func Format(result Result) string {
	if out, ok := result.(*Output); ok {
		return FormatSuccess(out.Text)
	}
	if err, ok := result.(error); ok {
		return FormatFailure(err)
	}
	return ""
}
