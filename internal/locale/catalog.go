package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var translations = map[string]string{
	"Admin Login":                 "دخول المشرف",
	"Restaurant Login":            "دخول المطعم",
	"Email":                       "البريد الإلكتروني",
	"Password":                    "كلمة المرور",
	"Sign in":                     "تسجيل الدخول",
	"Sign out":                    "تسجيل الخروج",
	"Dashboard":                   "لوحة التحكم",
	"Menu":                        "القائمة",
	"Welcome, %s":                 "مرحباً، %s",
	"Pending Restaurants":         "المطاعم المعلقة",
	"Activate Trial Subscription": "تفعيل الاشتراك التجريبي",
	"Approve":                     "موافقة",
	"Reject":                      "رفض",
	"Activate trial":              "تفعيل التجربة",
	"No pending restaurants.":     "لا توجد مطاعم معلقة.",
	"No restaurants to activate.": "لا توجد مطاعم للتفعيل.",
	"Could not load profile.":     "تعذر تحميل الملف الشخصي.",
	"Checking authentication...":  "جارٍ التحقق من المصادقة...",
	"Search menu items...":        "ابحث في عناصر القائمة...",
	"Available":                   "متوفر",
	"Unavailable":                 "غير متوفر",
	"%d items":                    "%d عناصر",
	"Language":                    "اللغة",
}

var builder = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, ar := range translations {
		// Ошибка возможна только для некорректного тега.
		_ = b.SetString(language.English, key, key)
		_ = b.SetString(language.Arabic, key, ar)
	}
	return b
}

// Printer возвращает принтер сообщений для языка.
func Printer(lang Language) *message.Printer {
	return message.NewPrinter(lang.Tag(), message.Catalog(builder))
}

// T переводит строку на язык lang. Непереведённые строки возвращаются как есть.
func T(lang Language, key string, args ...any) string {
	return Printer(lang).Sprintf(key, args...)
}
