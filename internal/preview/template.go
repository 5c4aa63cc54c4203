package preview

// previewTemplateString 是预览渲染的 Go HTML 模板。
// 结构（resume-container / resume-header / resume-section 及各 class 名）
// 需要与模板样式表保持一致。
const previewTemplateString = `<div class="resume-container {{.Template}}" style="{{.ContainerStyle | safeCSS}}">
<div class="resume-header">
{{- if .ProfilePicture}}
<div class="profile-picture"><img src="{{.ProfilePicture | safeImageURL}}" alt="Profile Picture"></div>
{{- end}}
<div class="personal-info">
<h1 class="name">{{.Name}}</h1>
<div class="contact-info">
{{- with .Personal.Email}}<span class="contact-item contact-email">{{.}}</span>{{end}}
{{- with .Personal.Phone}}<span class="contact-item contact-phone">{{.}}</span>{{end}}
{{- with .Personal.Address}}<span class="contact-item contact-address">{{.}}</span>{{end}}
{{- with .Personal.LinkedIn}}<span class="contact-item contact-linkedin">{{.}}</span>{{end}}
{{- with .Personal.GitHub}}<span class="contact-item contact-github">{{.}}</span>{{end}}
{{- with .Personal.Website}}<span class="contact-item contact-website">{{.}}</span>{{end}}
</div>
</div>
</div>
{{- range .Sections}}
{{- if eq .Key "summary"}}
<div class="resume-section summary-section">
<h2 class="section-title">Professional Summary</h2>
<p class="summary-text">{{.Summary | nl2br}}</p>
</div>
{{- else if eq .Key "experience"}}
<div class="resume-section experience-section">
<h2 class="section-title">Professional Experience</h2>
{{- range .Entries}}
<div class="experience-item">
<div class="experience-header">
<h3 class="position">{{index . "position" | orLabel "Position"}}</h3>
<span class="period">{{index . "period" | orLabel "Period"}}</span>
</div>
<div class="company-location">
<span class="company">{{index . "company" | orLabel "Company"}}</span>
{{- with index . "location"}}<span class="location">{{.}}</span>{{end}}
</div>
{{- with index . "description"}}<div class="description">{{. | nl2br}}</div>{{end}}
</div>
{{- end}}
</div>
{{- else if eq .Key "education"}}
<div class="resume-section education-section">
<h2 class="section-title">Education</h2>
{{- range .Entries}}
<div class="education-item">
<div class="education-header">
<h3 class="degree">{{index . "degree" | orLabel "Degree"}}{{with index . "field"}} in {{.}}{{end}}</h3>
<span class="period">{{index . "period" | orLabel "Period"}}</span>
</div>
<div class="school">{{index . "school" | orLabel "School"}}</div>
{{- with index . "description"}}<div class="description">{{. | nl2br}}</div>{{end}}
</div>
{{- end}}
</div>
{{- else if eq .Key "skills"}}
<div class="resume-section skills-section">
<h2 class="section-title">Skills</h2>
<div class="skills-grid">
{{- range .Entries}}
<div class="skill-item"><span class="skill-name">{{index . "name" | orLabel "Skill"}}</span>{{with index . "level"}}<span class="skill-level">{{.}}</span>{{end}}</div>
{{- end}}
</div>
</div>
{{- else if eq .Key "languages"}}
<div class="resume-section languages-section">
<h2 class="section-title">Languages</h2>
<div class="languages-grid">
{{- range .Entries}}
<div class="language-item"><span class="language-name">{{index . "name" | orLabel "Language"}}</span>{{with index . "level"}}<span class="language-level">{{.}}</span>{{end}}</div>
{{- end}}
</div>
</div>
{{- else if eq .Key "certifications"}}
<div class="resume-section certifications-section">
<h2 class="section-title">Certifications</h2>
{{- range .Entries}}
<div class="certification-item">
<h3 class="cert-name">{{index . "name" | orLabel "Certification"}}</h3>
<div class="cert-details">
{{- with index . "organization"}}<span class="cert-org">{{.}}</span>{{end}}
{{- with index . "year"}}<span class="cert-year">{{.}}</span>{{end}}
</div>
</div>
{{- end}}
</div>
{{- else if eq .Key "hobbies"}}
<div class="resume-section hobbies-section">
<h2 class="section-title">Interests &amp; Hobbies</h2>
<div class="hobbies-list">{{.HobbyList}}</div>
</div>
{{- end}}
{{- end}}
</div>
`
