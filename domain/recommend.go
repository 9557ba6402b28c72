package domain

// RuleScores holds the per-rule normalized scores for one candidate. A
// fixed struct rather than a map so the set of rules is closed at compile
// time and a zero value is cheap to compare.
type RuleScores struct {
	RecentShort    float64 `json:"recent_short"`
	RecentLong     float64 `json:"recent_long"`
	BoughtTogether float64 `json:"bought_together"`
	PopularAge     float64 `json:"popular_age"`
}

// IsZero reports whether no rule fired for the candidate.
func (r RuleScores) IsZero() bool {
	return r.RecentShort == 0 && r.RecentLong == 0 && r.BoughtTogether == 0 && r.PopularAge == 0
}

// Top returns the name and value of the strongest rule.
func (r RuleScores) Top() (string, float64) {
	name, best := "recent_short", r.RecentShort
	if r.RecentLong > best {
		name, best = "recent_long", r.RecentLong
	}
	if r.BoughtTogether > best {
		name, best = "bought_together", r.BoughtTogether
	}
	if r.PopularAge > best {
		name, best = "popular_age", r.PopularAge
	}
	return name, best
}

// Candidate is one (user, article) pair emitted by the retrieval stage.
type Candidate struct {
	UserID     uint       `json:"user_id"`
	ArticleID  string     `json:"article_id"`
	Score      float64    `json:"score"`  // weighted blend of rule scores
	Reason     string     `json:"reason"` // name of the strongest rule
	RuleScores RuleScores `json:"rule_scores"`
}

// FeatureColumns is the model's input schema in training order. Changing
// the order invalidates every persisted model artifact.
var FeatureColumns = []string{
	"retrieval_score",
	"retrieval_recent_short",
	"retrieval_recent_long",
	"retrieval_bought_together",
	"retrieval_popular_age",
	"user_total_purchases",
	"user_recency_days",
	"user_age_bin",
	"item_popularity_7d",
	"item_popularity_30d",
	"item_price_mean_30d",
	"item_department_no",
	"item_gender_tag",
	"recent_interaction_7d",
	"co_purchase_with_last3",
}

// AgeBinFeatureIndex marks the single categorical column in FeatureColumns.
const AgeBinFeatureIndex = 7

// FeatureVector is the full per-pair feature row built by the feature
// stage and consumed identically at training and serving time.
type FeatureVector struct {
	UserID    uint   `json:"user_id"`
	ArticleID string `json:"article_id"`

	RetrievalScore          float64 `json:"retrieval_score"`
	RetrievalRecentShort    float64 `json:"retrieval_recent_short"`
	RetrievalRecentLong     float64 `json:"retrieval_recent_long"`
	RetrievalBoughtTogether float64 `json:"retrieval_bought_together"`
	RetrievalPopularAge     float64 `json:"retrieval_popular_age"`

	UserTotalPurchases float64 `json:"user_total_purchases"`
	UserRecencyDays    float64 `json:"user_recency_days"`
	UserAgeBin         int     `json:"user_age_bin"` // categorical code, see AgeBinCode

	ItemPopularity7d  float64 `json:"item_popularity_7d"`
	ItemPopularity30d float64 `json:"item_popularity_30d"`
	ItemPriceMean30d  float64 `json:"item_price_mean_30d"`
	ItemDepartmentNo  float64 `json:"item_department_no"`
	ItemGenderTag     float64 `json:"item_gender_tag"`

	RecentInteraction7d float64 `json:"recent_interaction_7d"`
	CoPurchaseWithLast3 float64 `json:"co_purchase_with_last3"`

	Reason string `json:"reason"`
}

// Row flattens the vector into model input order per FeatureColumns.
func (f FeatureVector) Row() []float64 {
	return []float64{
		f.RetrievalScore,
		f.RetrievalRecentShort,
		f.RetrievalRecentLong,
		f.RetrievalBoughtTogether,
		f.RetrievalPopularAge,
		f.UserTotalPurchases,
		f.UserRecencyDays,
		float64(f.UserAgeBin),
		f.ItemPopularity7d,
		f.ItemPopularity30d,
		f.ItemPriceMean30d,
		f.ItemDepartmentNo,
		f.ItemGenderTag,
		f.RecentInteraction7d,
		f.CoPurchaseWithLast3,
	}
}

// LabeledPair is a feature row joined with its purchase label for training.
type LabeledPair struct {
	FeatureVector
	Label int `json:"label"` // 1 if purchased inside the target window
}

// Recommendation is one ranked item enriched with catalog fields for display.
type Recommendation struct {
	ArticleID        string  `json:"article_id"`
	Score            float64 `json:"score"`
	Reason           string  `json:"reason"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	ImagePath        string  `json:"image_path"`
	ProductGroupName string  `json:"product_group_name"`
}

// RecommendResult is the personalized ranking response for one user.
type RecommendResult struct {
	UserID    uint             `json:"user_id"`
	Items     []Recommendation `json:"items"`
	ModelUsed bool             `json:"model_used"`
	Degraded  bool             `json:"degraded"`
}

// ForYouItem is one visually-similar or cold-start pick on the For-You shelf.
type ForYouItem struct {
	ArticleID        string  `json:"article_id"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	ImagePath        string  `json:"image_path"`
	ProductGroupName string  `json:"product_group_name"`
	PrimaryColor     string  `json:"primary_color"`
	ColorDescription string  `json:"color_description"`
	Score            float64 `json:"score"`
	Reason           string  `json:"reason"`
	SourceArticleID  string  `json:"source_article_id,omitempty"`
}
