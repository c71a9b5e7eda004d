// Package menu: демонстрационное меню ресторана с названиями на en и ar.
// Данные статические и не сохраняются в бэкенде.
package menu

import (
	"strings"

	"github.com/PRECISEKY/food-admin-panel/internal/models"
)

// Category: категория меню.
type Category struct {
	ID          string
	Name        models.LocalizedText
	Description models.LocalizedText
}

// Item: позиция меню.
type Item struct {
	ID          string
	Name        models.LocalizedText
	Description models.LocalizedText
	Price       float64
	Category    string
	Available   bool
}

// Categories возвращает категории в порядке показа.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Items возвращает все позиции.
func Items() []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Filter оставляет позиции, у которых название на языке lang или ID категории
// содержит query без учёта регистра. Пустой запрос возвращает всё меню.
func Filter(lang, query string) []Item {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Item
	for _, it := range items {
		if q == "" ||
			strings.Contains(strings.ToLower(it.Name.In(lang)), q) ||
			strings.Contains(strings.ToLower(it.Category), q) {
			out = append(out, it)
		}
	}
	return out
}

// CountByCategory считает позиции в каждой категории.
func CountByCategory() map[string]int {
	counts := make(map[string]int, len(categories))
	for _, c := range categories {
		counts[c.ID] = 0
	}
	for _, it := range items {
		counts[it.Category]++
	}
	return counts
}

var categories = []Category{
	{
		ID:          "appetizers",
		Name:        models.LocalizedText{"en": "Appetizers", "ar": "المقبلات"},
		Description: models.LocalizedText{"en": "Start your meal with something delicious", "ar": "ابدأ وجبتك بشيء لذيذ"},
	},
	{
		ID:          "main-courses",
		Name:        models.LocalizedText{"en": "Main Courses", "ar": "الأطباق الرئيسية"},
		Description: models.LocalizedText{"en": "Our chef's special dishes", "ar": "أطباق الشيف الخاصة"},
	},
	{
		ID:          "desserts",
		Name:        models.LocalizedText{"en": "Desserts", "ar": "الحلويات"},
		Description: models.LocalizedText{"en": "Sweet treats to finish your meal", "ar": "حلويات لذيذة لإنهاء وجبتك"},
	},
	{
		ID:          "drinks",
		Name:        models.LocalizedText{"en": "Drinks", "ar": "المشروبات"},
		Description: models.LocalizedText{"en": "Refreshing beverages", "ar": "مشروبات منعشة"},
	},
}

var items = []Item{
	{ID: "1", Name: models.LocalizedText{"en": "Bruschetta", "ar": "بروسكيتا"}, Description: models.LocalizedText{"en": "Toasted bread topped with tomatoes, garlic, and basil", "ar": "خبز محمص مع الطماطم والثوم والريحان"}, Price: 8.99, Category: "appetizers", Available: true},
	{ID: "2", Name: models.LocalizedText{"en": "Calamari", "ar": "كالاماري"}, Description: models.LocalizedText{"en": "Fried squid served with marinara sauce", "ar": "حبار مقلي يقدم مع صلصة مارينارا"}, Price: 12.99, Category: "appetizers", Available: true},
	{ID: "3", Name: models.LocalizedText{"en": "Margherita Pizza", "ar": "بيتزا مارجريتا"}, Description: models.LocalizedText{"en": "Classic pizza with tomato sauce, mozzarella, and basil", "ar": "بيتزا كلاسيكية مع صلصة الطماطم وجبنة الموزاريلا والريحان"}, Price: 14.99, Category: "main-courses", Available: true},
	{ID: "4", Name: models.LocalizedText{"en": "Spaghetti Carbonara", "ar": "سباغيتي كاربونارا"}, Description: models.LocalizedText{"en": "Pasta with eggs, cheese, pancetta, and black pepper", "ar": "معكرونة مع البيض والجبن والبانسيتا والفلفل الأسود"}, Price: 16.99, Category: "main-courses", Available: true},
	{ID: "5", Name: models.LocalizedText{"en": "Tiramisu", "ar": "تيراميسو"}, Description: models.LocalizedText{"en": "Coffee-flavored Italian dessert", "ar": "حلوى إيطالية بنكهة القهوة"}, Price: 7.99, Category: "desserts", Available: true},
	{ID: "6", Name: models.LocalizedText{"en": "Cheesecake", "ar": "كعكة الجبن"}, Description: models.LocalizedText{"en": "New York style cheesecake with berry compote", "ar": "كعكة الجبن على طريقة نيويورك مع كومبوت التوت"}, Price: 8.99, Category: "desserts", Available: false},
	{ID: "7", Name: models.LocalizedText{"en": "Red Wine", "ar": "نبيذ أحمر"}, Description: models.LocalizedText{"en": "House red wine, glass", "ar": "نبيذ أحمر منزلي، كأس"}, Price: 9.99, Category: "drinks", Available: true},
	{ID: "8", Name: models.LocalizedText{"en": "Sparkling Water", "ar": "مياه فوارة"}, Description: models.LocalizedText{"en": "Bottle of sparkling mineral water", "ar": "زجاجة مياه معدنية فوارة"}, Price: 3.99, Category: "drinks", Available: true},
	{ID: "9", Name: models.LocalizedText{"en": "Chicken Parmesan", "ar": "دجاج بارميزان"}, Description: models.LocalizedText{"en": "Breaded chicken with tomato sauce and melted cheese", "ar": "دجاج مغطى بالخبز المحمص مع صلصة الطماطم والجبن الذائب"}, Price: 18.99, Category: "main-courses", Available: true},
	{ID: "10", Name: models.LocalizedText{"en": "Caesar Salad", "ar": "سلطة سيزر"}, Description: models.LocalizedText{"en": "Romaine lettuce with Caesar dressing and croutons", "ar": "خس روماني مع صلصة سيزر وقطع خبز محمص"}, Price: 10.99, Category: "appetizers", Available: true},
	{ID: "11", Name: models.LocalizedText{"en": "Chocolate Lava Cake", "ar": "كعكة الشوكولاتة البركانية"}, Description: models.LocalizedText{"en": "Warm chocolate cake with a molten center", "ar": "كعكة شوكولاتة دافئة مع مركز منصهر"}, Price: 8.99, Category: "desserts", Available: true},
	{ID: "12", Name: models.LocalizedText{"en": "Iced Tea", "ar": "شاي مثلج"}, Description: models.LocalizedText{"en": "Freshly brewed iced tea with lemon", "ar": "شاي مثلج طازج مع الليمون"}, Price: 3.99, Category: "drinks", Available: true},
}
