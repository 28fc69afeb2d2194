package heuristic

// categoryRule maps keyword stems to a category and its subcategory table.
// Keywords are Russian stems matched by substring against the lowercased
// segment, so "тренир" covers "тренировка", "потренировался", etc.
type categoryRule struct {
	Category      string
	Keywords      []string
	Subcategories []subcategoryRule
}

// subcategoryRule maps keyword stems to a subcategory.
type subcategoryRule struct {
	Subcategory string
	Keywords    []string
}

// achievementRule maps a keyword to an achievement weight. Rules are
// ordered by weight descending so the strongest matching keyword wins.
type achievementRule struct {
	Keyword string
	Weight  int
}

// defaultCategoryRules returns the fixed 8-category keyword taxonomy.
// Order defines match precedence between categories.
func defaultCategoryRules() []categoryRule {
	return []categoryRule{
		{
			Category: "спорт",
			Keywords: []string{
				"зал", "тренир", "спорт", "бег", "качал", "пресс",
				"отжим", "подтяг", "присед", "пожал", "жим", "кардио",
				"йога", "пилатес", "бассейн", "плав", "велосипед",
				"фитнес", "пробежал", "марафон",
			},
			Subcategories: []subcategoryRule{
				{Subcategory: "бодибилдинг", Keywords: []string{"качал", "пожал", "жим", "присед", "становая"}},
				{Subcategory: "кардио", Keywords: []string{"бег", "бежал", "пробежал", "кардио", "велосипед", "марафон"}},
				{Subcategory: "йога", Keywords: []string{"йога", "медитац"}},
			},
		},
		{
			Category: "учёба",
			Keywords: []string{
				"учи", "читал", "книг", "курс", "лекци", "учёб",
				"урок", "домашк", "экзамен", "конспект",
				"изуча", "разбир", "математ", "учебник",
			},
			Subcategories: []subcategoryRule{
				{Subcategory: "математика", Keywords: []string{"математ", "алгебр", "геометр", "матан"}},
				{Subcategory: "программирование", Keywords: []string{"програм", "код", "python", "java", "алгоритм"}},
				{Subcategory: "языки", Keywords: []string{"английск", "немецк", "французск", "язык"}},
			},
		},
		{
			Category: "готовка",
			Keywords: []string{
				"готов", "приготов", "сварил", "пожарил", "испёк",
				"кухн", "рецепт", "обед", "ужин", "завтрак",
			},
		},
		{
			Category: "работа",
			Keywords: []string{
				"работ", "проект", "задач", "созвон",
				"деплой", "фича", "баг", "код ревью", "митинг",
			},
		},
		{
			Category: "творчество",
			Keywords: []string{
				"рисов", "музык", "играл на", "гитар", "пиани", "сочин",
				"творч", "художеств", "стих", "песн", "картин",
			},
			Subcategories: []subcategoryRule{
				{Subcategory: "музыка", Keywords: []string{"музык", "гитар", "пиани", "играл на"}},
				{Subcategory: "рисование", Keywords: []string{"рисов", "нарисов", "художеств", "картин"}},
			},
		},
		{
			Category: "саморазвитие",
			Keywords: []string{
				"медитиров", "размышл", "психолог", "личностн",
				"саморазв", "цели", "планиров", "дневник",
			},
		},
		{
			Category: "социальное",
			Keywords: []string{
				"встреч", "друз", "семь", "общен", "позвон",
				"гости", "компан", "тусовк", "свидан",
			},
		},
		{
			Category: "дом",
			Keywords: []string{
				"убир", "уборк", "убрал", "помыл", "постир", "почист",
				"порядок", "быт",
			},
		},
	}
}

// defaultAchievementRules returns the achievement keyword table, ordered
// by weight descending.
func defaultAchievementRules() []achievementRule {
	return []achievementRule{
		{Keyword: "личный рекорд", Weight: 25},
		{Keyword: "побил рекорд", Weight: 25},
		{Keyword: "рекорд", Weight: 25},
		{Keyword: "сдал экзамен", Weight: 20},
		{Keyword: "защитил", Weight: 20},
		{Keyword: "первый раз", Weight: 20},
		{Keyword: "впервые", Weight: 20},
		{Keyword: "достижени", Weight: 15},
		{Keyword: "окончил", Weight: 15},
		{Keyword: "завершил", Weight: 12},
		{Keyword: "получилось", Weight: 10},
		{Keyword: "смог", Weight: 10},
		{Keyword: "наконец", Weight: 8},
	}
}
